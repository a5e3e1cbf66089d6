package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TemirB/b2b-storefront/internal/domain"
)

var (
	fakeCategories = []string{"fasteners", "tools", "safety", "electrical", "plumbing"}
	fakeBrands     = []string{"acme", "globex", "initech", "umbrella"}
	fakeTags       = []string{"bulk", "eco", "new", "clearance", "pro", "imported"}
)

// FakeProducts generates n plausible catalog entries. Names and descriptions
// come from faker; everything the filters look at is derived from the index
// so that generated catalogs exercise every filter.
func FakeProducts(n int, now time.Time) []domain.Product {
	out := make([]domain.Product, 0, n)
	for i := 0; i < n; i++ {
		name := strings.TrimSpace(faker.Word() + " " + faker.Word())
		if len(name) > 255 {
			name = name[:255]
		}
		status := "active"
		if i%10 == 9 {
			status = "draft"
		}
		visibility := "public"
		if i%7 == 6 {
			visibility = "b2b"
		}
		created := now.Add(-time.Duration(n-i) * time.Minute).UTC()

		out = append(out, domain.Product{
			ID:          uuid.NewString(),
			SKU:         fmt.Sprintf("SKU-%06d", i),
			Name:        name,
			Description: faker.Sentence(),
			Category:    fakeCategories[i%len(fakeCategories)],
			Brand:       fakeBrands[i%len(fakeBrands)],
			Tags:        []string{fakeTags[i%len(fakeTags)], fakeTags[(i/2)%len(fakeTags)]},
			Price:       decimal.New(int64(500+(i*3719)%99500), -2),
			Stock:       (i * 13) % 40,
			Status:      status,
			Visibility:  visibility,
			Featured:    i%11 == 0,
			CreatedAt:   created,
			UpdatedAt:   created,
		})
	}
	return out
}
