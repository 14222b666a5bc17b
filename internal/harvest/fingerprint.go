package harvest

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic change detection
	"encoding/hex"
	"strconv"

	"github.com/samvad-hq/catalog-harvester/internal/domain"
)

// Fingerprint identifies a product together with the fields whose change should
// trigger a new event: price, discount, sales and rating.
func Fingerprint(p domain.Product) string {
	h := sha1.New() //nolint:gosec
	for _, part := range []string{
		p.ID,
		strconv.FormatFloat(p.Price, 'f', -1, 64),
		strconv.FormatFloat(p.DiscountRate, 'f', -1, 64),
		strconv.Itoa(p.Sold),
		strconv.FormatFloat(p.Rating, 'f', -1, 64),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
