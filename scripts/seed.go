//go:build ignore

package main

import (
	"log"
	"time"

	"github.com/hugh/startup-vault/internal/database"
	"github.com/hugh/startup-vault/internal/database/models"
	"github.com/hugh/startup-vault/pkg/config"
	"github.com/hugh/startup-vault/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	now := time.Now()
	deals := []models.Deal{
		{
			Title:        "Vercel Pro - 50% Off Annual",
			Description:  "Deploy your Next.js apps with lightning-fast edge functions and global CDN. Get 50% discount on Pro tier for 1 year.",
			Category:     models.CategoryHosting,
			AccessLevel:  models.AccessPublic,
			Discount:     50,
			DiscountType: models.DiscountPercentage,
			MaxClaims:    150,
			Partner: models.Partner{
				Name:        "Vercel",
				Logo:        "https://via.placeholder.com/100?text=Vercel",
				Description: "The platform for frontend developers",
				Website:     "https://vercel.com",
			},
			Terms:     "Valid for 12 months. Apply code at checkout. Not combinable with other offers. Full refund within 30 days.",
			ExpiresAt: now.Add(180 * 24 * time.Hour),
		},
		{
			Title:        "Stripe - $500 Credit",
			Description:  "Accept payments globally with industry-leading security. New businesses get $500 in processing credits.",
			Category:     models.CategoryPayment,
			AccessLevel:  models.AccessVerified,
			Discount:     500,
			DiscountType: models.DiscountFlat,
			MaxClaims:    50,
			Partner: models.Partner{
				Name:        "Stripe",
				Logo:        "https://via.placeholder.com/100?text=Stripe",
				Description: "Payment processing for internet businesses",
				Website:     "https://stripe.com",
			},
			Terms:     "Valid for 12 months. Credits automatically applied. For new Stripe accounts only. Subject to verification.",
			ExpiresAt: now.Add(365 * 24 * time.Hour),
		},
		{
			Title:        "Mixpanel - 3 Months Free",
			Description:  "Product analytics for user behavior. Get 3 months free of Mixpanel Plus tier ($999 value).",
			Category:     models.CategoryAnalytics,
			AccessLevel:  models.AccessVerified,
			Discount:     3,
			DiscountType: models.DiscountFlat,
			MaxClaims:    100,
			Partner: models.Partner{
				Name:        "Mixpanel",
				Logo:        "https://via.placeholder.com/100?text=Mixpanel",
				Description: "Advanced product analytics",
				Website:     "https://mixpanel.com",
			},
			Terms:     "3 free months of Plus tier. Must have verified startup status. Convert to paid after trial period.",
			ExpiresAt: now.Add(90 * 24 * time.Hour),
		},
		{
			Title:        "Slack Pro - 40% Off Annual",
			Description:  "Team communication platform with unlimited message history, advanced security, and integrations.",
			Category:     models.CategoryCommunication,
			AccessLevel:  models.AccessPublic,
			Discount:     40,
			DiscountType: models.DiscountPercentage,
			MaxClaims:    200,
			Partner: models.Partner{
				Name:        "Slack",
				Logo:        "https://via.placeholder.com/100?text=Slack",
				Description: "Where work happens",
				Website:     "https://slack.com",
			},
			Terms:     "40% off annual Pro plan. Applies to new workspaces only. Discount locked for 1 year.",
			ExpiresAt: now.Add(120 * 24 * time.Hour),
		},
		{
			Title:        "Figma Professional - 6 Months Free",
			Description:  "Collaborative design platform. Get 6 months of the Professional plan free for your whole team.",
			Category:     models.CategoryDesign,
			AccessLevel:  models.AccessPublic,
			Discount:     6,
			DiscountType: models.DiscountFlat,
			MaxClaims:    120,
			Partner: models.Partner{
				Name:        "Figma",
				Logo:        "https://via.placeholder.com/100?text=Figma",
				Description: "The collaborative interface design tool",
				Website:     "https://figma.com",
			},
			Terms:     "6 free months of Professional. New teams only. Seats capped at 10 during the free period.",
			ExpiresAt: now.Add(150 * 24 * time.Hour),
		},
	}

	for i := range deals {
		if err := db.Create(&deals[i]).Error; err != nil {
			log.Fatalf("failed to seed deal %q: %v", deals[i].Title, err)
		}
		log.Printf("seeded deal: %s", deals[i].Title)
	}

	log.Printf("seeded %d deals", len(deals))
}
