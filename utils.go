package carelog

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cosmos/cosmos-sdk/types/bech32"
)

// ParseDocumentURI splits doc://<owner>/<collection>/<documentID>.
func ParseDocumentURI(escaped string) (string, string, string, error) {
	uriString, err := url.QueryUnescape(escaped)
	if err != nil {
		return "", "", "", fmt.Errorf("invalid uri encoding")
	}
	uri, err := url.Parse(uriString)
	if err != nil {
		return "", "", "", fmt.Errorf("invalid uri")
	}

	if uri.Scheme != "doc" {
		return "", "", "", fmt.Errorf("unsupported uri scheme")
	}

	owner := uri.Host
	path := strings.TrimPrefix(uri.Path, "/")

	collection, documentID, _ := strings.Cut(path, "/")
	if owner == "" || collection == "" {
		return "", "", "", fmt.Errorf("invalid uri")
	}

	return owner, collection, documentID, nil
}

func ComposeDocumentURI(owner, collection, documentID string) string {
	u := &url.URL{
		Scheme: "doc",
		Host:   owner,
		Path:   "/" + collection,
	}
	if documentID != "" {
		u.Path += "/" + documentID
	}
	return u.String()
}

// IsAddress reports whether s is a bech32 account address with the network prefix.
func IsAddress(s string) bool {
	hrp, data, err := bech32.DecodeAndConvert(s)
	if err != nil {
		return false
	}
	return hrp == AddressPrefix && len(data) == 20
}
