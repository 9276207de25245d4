package domain

import "testing"

// FuzzParseAddress checks that parsing never panics and that any accepted
// address round-trips through its text form.
func FuzzParseAddress(f *testing.F) {
	f.Add("")
	f.Add("11111111111111111111111111111111")
	f.Add("4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM")
	f.Add("not-base58-0OIl")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		addr, err := ParseAddress(input)
		if err != nil {
			return
		}
		if addr.IsZero() {
			t.Fatal("zero address accepted")
		}
		again, err := ParseAddress(addr.String())
		if err != nil {
			t.Fatalf("accepted address failed round-trip: %v", err)
		}
		if again != addr {
			t.Fatal("round-trip changed address")
		}
	})
}
