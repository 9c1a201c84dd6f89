package catalog

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/vesaki/vesaki-server/models"
	"github.com/vesaki/vesaki-server/store"
)

// Seed inserts the fixture catalog when the products collection is empty.
// Safe to call on every startup.
func Seed(ctx context.Context, s store.Store) error {
	count, err := s.CountProducts(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Printf("Catalog already has %d products, skipping seed", count)
		return nil
	}

	for _, p := range seedProducts {
		p.ID = uuid.NewString()
		p.InStock = true
		p.CreatedAt = time.Now()
		if err := s.InsertProduct(ctx, &p); err != nil {
			return err
		}
	}
	log.Printf("Seeded %d catalog products", len(seedProducts))
	return nil
}

var seedProducts = []models.Product{
	{Name: "Relaxed Linen Blazer", Brand: "Atelier Nord", Price: "189.00", Currency: "USD", Retailer: "Atelier Nord", Category: "outerwear", Subcategory: "blazers", ImageURL: "https://images.vesaki.app/seed/linen-blazer.jpg", ProductURL: "https://ateliernord.example.com/linen-blazer", Description: "Unstructured linen blazer in natural ecru", Trending: true},
	{Name: "Pleated Midi Skirt", Brand: "Maison Clair", Price: "120.00", Currency: "USD", Retailer: "Maison Clair", Category: "skirts", Subcategory: "midi", ImageURL: "https://images.vesaki.app/seed/pleated-midi.jpg", ProductURL: "https://maisonclair.example.com/pleated-midi", Description: "Knife-pleated satin midi skirt", Trending: true},
	{Name: "Boxy Denim Jacket", Brand: "Form & Field", Price: "98.00", Currency: "USD", Retailer: "Form & Field", Category: "outerwear", Subcategory: "denim", ImageURL: "https://images.vesaki.app/seed/denim-jacket.jpg", ProductURL: "https://formfield.example.com/denim-jacket", Description: "Washed indigo boxy-fit denim jacket", Trending: true, IsNew: true},
	{Name: "Silk Slip Dress", Brand: "Maison Clair", Price: "240.00", Currency: "USD", Retailer: "Maison Clair", Category: "dresses", Subcategory: "slip", ImageURL: "https://images.vesaki.app/seed/slip-dress.jpg", ProductURL: "https://maisonclair.example.com/slip-dress", Description: "Bias-cut silk slip dress in champagne", IsEditorial: true},
	{Name: "Wide-Leg Trousers", Brand: "Atelier Nord", Price: "150.00", Currency: "USD", Retailer: "Atelier Nord", Category: "trousers", Subcategory: "wide-leg", ImageURL: "https://images.vesaki.app/seed/wide-leg.jpg", ProductURL: "https://ateliernord.example.com/wide-leg", Description: "High-rise wide-leg wool trousers", IsNew: true},
	{Name: "Ribbed Knit Tank", Brand: "Form & Field", Price: "45.00", Currency: "USD", Retailer: "Form & Field", Category: "tops", Subcategory: "knitwear", ImageURL: "https://images.vesaki.app/seed/knit-tank.jpg", ProductURL: "https://formfield.example.com/knit-tank", Description: "Ribbed cotton knit tank in bone"},
	{Name: "Leather Ballet Flats", Brand: "Calle Ocho", Price: "135.00", Currency: "USD", Retailer: "Calle Ocho", Category: "shoes", Subcategory: "flats", ImageURL: "https://images.vesaki.app/seed/ballet-flats.jpg", ProductURL: "https://calleocho.example.com/ballet-flats", Description: "Soft nappa leather ballet flats", IsEditorial: true},
	{Name: "Oversized Poplin Shirt", Brand: "Atelier Nord", Price: "89.00", Currency: "USD", Retailer: "Atelier Nord", Category: "tops", Subcategory: "shirts", ImageURL: "https://images.vesaki.app/seed/poplin-shirt.jpg", ProductURL: "https://ateliernord.example.com/poplin-shirt", Description: "Crisp oversized cotton poplin shirt", Trending: true, IsNew: true},
	{Name: "Cropped Cardigan", Brand: "Maison Clair", Price: "110.00", Currency: "USD", Retailer: "Maison Clair", Category: "tops", Subcategory: "knitwear", ImageURL: "https://images.vesaki.app/seed/cropped-cardigan.jpg", ProductURL: "https://maisonclair.example.com/cropped-cardigan", Description: "Merino cropped cardigan with shell buttons"},
	{Name: "Straight-Leg Jeans", Brand: "Form & Field", Price: "115.00", Currency: "USD", Retailer: "Form & Field", Category: "trousers", Subcategory: "denim", ImageURL: "https://images.vesaki.app/seed/straight-jeans.jpg", ProductURL: "https://formfield.example.com/straight-jeans", Description: "Rigid straight-leg jeans in mid wash", Trending: true},
	{Name: "Wool Overcoat", Brand: "Atelier Nord", Price: "320.00", Currency: "USD", Retailer: "Atelier Nord", Category: "outerwear", Subcategory: "coats", ImageURL: "https://images.vesaki.app/seed/wool-overcoat.jpg", ProductURL: "https://ateliernord.example.com/wool-overcoat", Description: "Double-faced wool overcoat in camel", IsEditorial: true},
	{Name: "Canvas High-Tops", Brand: "Calle Ocho", Price: "75.00", Currency: "USD", Retailer: "Calle Ocho", Category: "shoes", Subcategory: "sneakers", ImageURL: "https://images.vesaki.app/seed/canvas-hightops.jpg", ProductURL: "https://calleocho.example.com/canvas-hightops", Description: "Off-white canvas high-top sneakers", IsNew: true},
}
