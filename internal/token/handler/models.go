package handler

import (
	"fmt"

	"tokenvault/internal/token"
	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
)

type openHolderRequest struct {
	// Address is optional; when empty the holder is opened at the address
	// derived from (asset, owner).
	Address string `json:"address,omitempty"`
	Asset   string `json:"asset"`
	Owner   string `json:"owner"`
}

func (r openHolderRequest) toModel() (token.OpenRequest, error) {
	var (
		out token.OpenRequest
		err error
	)
	if r.Address != "" {
		if out.Address, err = parseAddress("address", r.Address); err != nil {
			return out, err
		}
	}
	if out.Asset, err = parseAddress("asset", r.Asset); err != nil {
		return out, err
	}
	if out.Owner, err = parseAddress("owner", r.Owner); err != nil {
		return out, err
	}
	return out, nil
}

type mintRequest struct {
	Amount uint64 `json:"amount"`
}

type freezeRequest struct {
	Frozen bool `json:"frozen"`
}

type issueTokenRequest struct {
	Identity string `json:"identity"`
}

type issueTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func parseAddress(field, value string) (id.Address, error) {
	addr, err := id.ParseAddress(value)
	if err != nil {
		return id.Address{}, dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("%s: %s", field, dErrors.MessageOf(err)))
	}
	return addr, nil
}
