// ABOUTME: Tests for the Apple rendering adapter
// ABOUTME: Covers template overlay, field population, barcode selection, and archive structure

package apple

import (
	"archive/zip"
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/json"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbcwallet/passbridge/internal/config"
	"github.com/sbcwallet/passbridge/internal/profile"
	"github.com/sbcwallet/passbridge/internal/store"
)

// newTestSigner builds a signer around a fresh self-signed certificate.
func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "Pass Type ID: pass.test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return &Signer{key: key, cert: cert}
}

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	cfg := config.AppleConfig{
		TeamID:             "TEAM123",
		PassTypeIdentifier: "pass.com.example.test",
		OrganizationName:   "Test Org",
	}
	return NewRenderer(cfg, newTestSigner(t), nil)
}

// extractPassJSON unzips a pkpass buffer and decodes its pass.json.
func extractPassJSON(t *testing.T, buf []byte) (map[string]any, map[string][]byte) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	require.NoError(t, err)

	files := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		files[f.Name] = data
	}

	var passJSON map[string]any
	require.NoError(t, json.Unmarshal(files["pass.json"], &passJSON))
	return passJSON, files
}

func TestRender(t *testing.T) {
	registry := profile.NewRegistry()

	t.Run("renders a logistics child ticket", func(t *testing.T) {
		r := testRenderer(t)
		prof, err := registry.Get(profile.Logistics)
		require.NoError(t, err)

		p := &store.Pass{
			ID:      "PES-ab12-9c3e",
			Kind:    store.KindChild,
			Profile: profile.Logistics,
			Plate:   "ABC123A",
			Carrier: "Acme Freight",
			Status:  "ISSUED",
		}
		buf, err := r.Render(p, prof, KindGeneric)
		require.NoError(t, err)

		passJSON, files := extractPassJSON(t, buf)
		assert.Equal(t, "PES-ab12-9c3e", passJSON["serialNumber"])
		assert.Equal(t, "pass.com.example.test", passJSON["passTypeIdentifier"])
		assert.Equal(t, "TEAM123", passJSON["teamIdentifier"])
		assert.Equal(t, "Transport Order", passJSON["description"])
		assert.NotEmpty(t, files["signature"])

		generic := passJSON["generic"].(map[string]any)
		primary := generic["primaryFields"].([]any)
		require.Len(t, primary, 1)
		first := primary[0].(map[string]any)
		assert.Equal(t, "plate", first["key"])
		assert.Equal(t, "ABC123A", first["value"])

		barcodes := passJSON["barcodes"].([]any)
		require.NotEmpty(t, barcodes)
		assert.Equal(t, "PES-ab12-9c3e", barcodes[0].(map[string]any)["message"])
	})

	t.Run("loyalty card barcode carries the member id", func(t *testing.T) {
		r := testRenderer(t)
		prof, err := registry.Get(profile.Loyalty)
		require.NoError(t, err)

		p := &store.Pass{
			ID:           "LPR-ab12-9c3e",
			Kind:         store.KindChild,
			Profile:      profile.Loyalty,
			CustomerName: "Alice",
			MemberID:     "SBC-1-abc123",
			Points:       12,
			Status:       "ACTIVE",
		}
		buf, err := r.Render(p, prof, KindStore)
		require.NoError(t, err)

		passJSON, _ := extractPassJSON(t, buf)
		barcodes := passJSON["barcodes"].([]any)
		require.NotEmpty(t, barcodes)
		assert.Equal(t, "SBC-1-abc123", barcodes[0].(map[string]any)["message"])

		// Store card structure, not generic
		_, hasStore := passJSON["storeCard"]
		assert.True(t, hasStore)
	})

	t.Run("manifest digests match file contents", func(t *testing.T) {
		r := testRenderer(t)
		prof, err := registry.Get(profile.Healthcare)
		require.NoError(t, err)

		p := &store.Pass{
			ID:          "APB-x-1",
			Kind:        store.KindChild,
			Profile:     profile.Healthcare,
			PatientName: "Bob",
			Status:      "SCHEDULED",
		}
		buf, err := r.Render(p, prof, KindGeneric)
		require.NoError(t, err)

		_, files := extractPassJSON(t, buf)
		var manifest map[string]string
		require.NoError(t, json.Unmarshal(files["manifest.json"], &manifest))

		sum := sha1.Sum(files["pass.json"])
		assert.Equal(t, hex.EncodeToString(sum[:]), manifest["pass.json"])
	})

	t.Run("instance metadata overrides profile scalars", func(t *testing.T) {
		r := testRenderer(t)
		prof, err := registry.Get(profile.Logistics)
		require.NoError(t, err)

		p := &store.Pass{
			ID:      "PES-x-1",
			Kind:    store.KindChild,
			Profile: profile.Logistics,
			Status:  "ISSUED",
			Metadata: map[string]any{
				"appleWallet": map[string]any{
					"backgroundColor": "rgb(1,2,3)",
				},
			},
		}
		buf, err := r.Render(p, prof, KindGeneric)
		require.NoError(t, err)

		passJSON, _ := extractPassJSON(t, buf)
		assert.Equal(t, "rgb(1,2,3)", passJSON["backgroundColor"])
		assert.Equal(t, "rgb(255,255,255)", passJSON["foregroundColor"], "non-overridden profile scalar survives")
	})

	t.Run("unconfigured signer fails recoverably", func(t *testing.T) {
		r := NewRenderer(config.AppleConfig{}, &Signer{}, nil)
		prof, err := registry.Get(profile.Logistics)
		require.NoError(t, err)

		_, err = r.Render(&store.Pass{ID: "PES-x-2", Kind: store.KindChild, Profile: profile.Logistics}, prof, KindGeneric)
		assert.ErrorIs(t, err, ErrSignerNotConfigured)
		assert.ErrorContains(t, err, "generating apple wallet pass")
	})
}

func TestRenderInput(t *testing.T) {
	r := testRenderer(t)

	tests := []struct {
		name    string
		input   PassInput
		style   string
		barcode string
	}{
		{
			name:    "boarding pass uses confirmation code",
			input:   PassInput{Kind: KindBoarding, Title: "Flight 42", ConfirmationCode: "CONF-1"},
			style:   "boardingPass",
			barcode: "CONF-1",
		},
		{
			name:    "event ticket uses ticket number",
			input:   PassInput{Kind: KindEvent, Title: "Show", TicketNumber: "TKT-9"},
			style:   "eventTicket",
			barcode: "TKT-9",
		},
		{
			name:    "store card uses member id",
			input:   PassInput{Kind: KindStore, Title: "Card", MemberID: "SBC-1-x"},
			style:   "storeCard",
			barcode: "SBC-1-x",
		},
		{
			name:    "coupon uses promo code",
			input:   PassInput{Kind: KindCoupon, Title: "Deal", PromoCode: "SAVE10"},
			style:   "coupon",
			barcode: "SAVE10",
		},
		{
			name:    "gift card rides the store card structure",
			input:   PassInput{Kind: KindGift, Title: "Gift", CardNumber: "4111-xxxx"},
			style:   "storeCard",
			barcode: "4111-xxxx",
		},
		{
			name:    "transit rides the boarding pass structure",
			input:   PassInput{Kind: KindTransit, Title: "Metro", TicketNumber: "TR-7"},
			style:   "boardingPass",
			barcode: "TR-7",
		},
		{
			name:    "generic uses the explicit barcode value",
			input:   PassInput{Kind: KindGeneric, Title: "Badge", BarcodeValue: "RAW-1"},
			style:   "generic",
			barcode: "RAW-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := r.RenderInput("serial-1", tt.input)
			require.NoError(t, err)

			passJSON, _ := extractPassJSON(t, buf)
			_, hasStyle := passJSON[tt.style]
			assert.True(t, hasStyle, "expected style key %s", tt.style)

			barcodes := passJSON["barcodes"].([]any)
			require.NotEmpty(t, barcodes)
			assert.Equal(t, tt.barcode, barcodes[0].(map[string]any)["message"])
		})
	}
}
