package handler

import (
	"fmt"
	"net/http"

	"tokenvault/internal/vault/models"
	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
	"tokenvault/pkg/platform/httputil"
)

type initializePoolRequest struct {
	Asset string `json:"asset"`
}

type initializeAccessRequest struct {
	Asset  string `json:"asset"`
	Access string `json:"access"`
}

func (r initializeAccessRequest) toModel(owner id.Address) (models.InitializeAccessRequest, error) {
	out := models.InitializeAccessRequest{Owner: owner}
	var err error
	if out.Asset, err = parseAddress("asset", r.Asset); err != nil {
		return out, err
	}
	if out.Access, err = parseAddress("access", r.Access); err != nil {
		return out, err
	}
	return out, nil
}

type depositRequest struct {
	Source string `json:"source"`
	Pool   string `json:"pool"`
	Access string `json:"access"`
	Amount uint64 `json:"amount"`
}

func (r depositRequest) toModel(requester id.Address) (models.DepositRequest, error) {
	out := models.DepositRequest{Requester: requester, Amount: r.Amount}
	var err error
	if out.Source, err = parseAddress("source", r.Source); err != nil {
		return out, err
	}
	if out.Pool, err = parseAddress("pool", r.Pool); err != nil {
		return out, err
	}
	if out.Access, err = parseAddress("access", r.Access); err != nil {
		return out, err
	}
	return out, nil
}

type withdrawRequest struct {
	Destination string `json:"destination"`
	Pool        string `json:"pool"`
	Access      string `json:"access"`
	Amount      uint64 `json:"amount"`
}

func (r withdrawRequest) toModel(requester id.Address) (models.WithdrawRequest, error) {
	out := models.WithdrawRequest{Requester: requester, Amount: r.Amount}
	var err error
	if out.Destination, err = parseAddress("destination", r.Destination); err != nil {
		return out, err
	}
	if out.Pool, err = parseAddress("pool", r.Pool); err != nil {
		return out, err
	}
	if out.Access, err = parseAddress("access", r.Access); err != nil {
		return out, err
	}
	return out, nil
}

type deriveResponse struct {
	ProgramID  id.Address `json:"program_id"`
	Asset      id.Address `json:"asset"`
	Pool       id.Address `json:"pool"`
	PoolBump   uint8      `json:"pool_bump"`
	Access     id.Address `json:"access"`
	AccessBump uint8      `json:"access_bump"`
}

func decode(r *http.Request, v any) error {
	if err := httputil.DecodeJSON(r, v); err != nil {
		return err
	}
	sanitize(v)
	return nil
}

func parseAddress(field, value string) (id.Address, error) {
	addr, err := id.ParseAddress(value)
	if err != nil {
		return id.Address{}, dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("%s: %s", field, dErrors.MessageOf(err)))
	}
	return addr, nil
}
