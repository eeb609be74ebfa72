// ABOUTME: Save to Google Wallet URL generation via RS256 service account JWTs
// ABOUTME: Falls back to an unsigned reference URL when no signing key is present

package google

import (
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sbcwallet/passbridge/internal/config"
)

const saveBaseURL = "https://pay.google.com/gp/v/save/"

// SaveURL builds the "Save to Google Wallet" link for an object. The
// object is embedded in the JWT payload, so the link works even when
// the API upsert was skipped. Without a service account a reference
// URL carrying only the object id is returned; it resolves for objects
// that were previously upserted out of band.
func SaveURL(account *config.ServiceAccount, object map[string]any) (string, error) {
	id, _ := object["id"].(string)
	if account == nil {
		return saveBaseURL + url.PathEscape(id), nil
	}

	claims := jwt.MapClaims{
		"iss": account.ClientEmail,
		"aud": "google",
		"typ": "savetowallet",
		"iat": time.Now().Unix(),
		"payload": map[string]any{
			payloadKey(object): []map[string]any{object},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(account.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("signing save url token: %w", err)
	}
	return saveBaseURL + signed, nil
}

// payloadKey picks the JWT payload collection for an object. Loyalty
// objects carry a loyalty class reference; everything else rides in the
// generic collection.
func payloadKey(object map[string]any) string {
	if _, ok := object["loyaltyPoints"]; ok {
		return "loyaltyObjects"
	}
	return "genericObjects"
}
