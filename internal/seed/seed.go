// Package seed loads the demo catalog and accounts into an empty database.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/hortifruti-api/internal/model"
)

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	Count(ctx context.Context) (int, error)
}

type CategoryStore interface {
	Create(ctx context.Context, category *model.Category) error
}

type ProductStore interface {
	Create(ctx context.Context, product *model.Product) error
}

type demoUser struct {
	name, email, password string
	role                  model.Role
}

var demoUsers = []demoUser{
	{"Administrador", "admin@hortifrutidelivery.com.br", "admin123", model.RoleAdmin},
	{"Cliente Teste", "cliente@teste.com", "cliente123", model.RoleCustomer},
}

var demoCategories = []model.Category{
	{Name: "Frutas", Description: "Frutas frescas e selecionadas", Image: "/static/images/frutas.jpg"},
	{Name: "Verduras", Description: "Verduras frescas e selecionadas", Image: "/static/images/verduras.jpg"},
	{Name: "Legumes", Description: "Legumes frescos e selecionados", Image: "/static/images/legumes.jpg"},
	{Name: "Orgânicos", Description: "Produtos orgânicos certificados", Image: "/static/images/organicos.jpg"},
}

type demoProduct struct {
	name, description, price, unit, image, category string
	stock, discount                                 int
	organic, featured                               bool
}

var demoProducts = []demoProduct{
	{"Maçã Gala", "Maçã fresca e suculenta", "5.99", "kg", "/static/images/apple.jpg", "Frutas", 20, 0, false, true},
	{"Banana Prata", "Banana madura e doce", "4.50", "kg", "/static/images/banana.jpg", "Frutas", 30, 10, false, true},
	{"Alface Crespa", "Alface fresca e crocante", "2.99", "unid", "/static/images/lettuce.jpg", "Verduras", 15, 0, true, false},
	{"Tomate Italiano", "Tomate maduro e suculento", "6.99", "kg", "/static/images/tomato.jpg", "Legumes", 25, 0, false, true},
	{"Cenoura", "Cenoura fresca e crocante", "3.99", "kg", "/static/images/carrot.jpg", "Legumes", 18, 15, true, false},
	{"Morango", "Morango doce e suculento", "8.99", "bandeja", "/static/images/strawberry.jpg", "Frutas", 12, 0, true, true},
	{"Brócolis", "Brócolis fresco e nutritivo", "5.50", "unid", "/static/images/broccoli.jpg", "Verduras", 10, 0, false, false},
	{"Abacate", "Abacate maduro e cremoso", "7.99", "unid", "/static/images/avocado.jpg", "Frutas", 8, 20, false, true},
}

// Run inserts the demo data unless the users table already has rows.
func Run(ctx context.Context, users UserStore, categories CategoryStore, products ProductStore, log *slog.Logger) error {
	n, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		log.Info("seed skipped, database not empty", "users", n)
		return nil
	}

	for _, u := range demoUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user := &model.User{Name: u.name, Email: u.email, Password: string(hash), Role: u.role}
		if err := users.Create(ctx, user); err != nil {
			return fmt.Errorf("seed user %s: %w", u.email, err)
		}
	}

	categoryIDs := make(map[string]model.Category, len(demoCategories))
	for _, c := range demoCategories {
		category := c
		if err := categories.Create(ctx, &category); err != nil {
			return fmt.Errorf("seed category %s: %w", c.Name, err)
		}
		categoryIDs[category.Name] = category
	}

	for _, p := range demoProducts {
		product := &model.Product{
			Name:        p.name,
			Description: p.description,
			Price:       decimal.RequireFromString(p.price),
			Unit:        p.unit,
			Image:       p.image,
			CategoryID:  categoryIDs[p.category].ID,
			Stock:       p.stock,
			Organic:     p.organic,
			Featured:    p.featured,
			Discount:    p.discount,
			Active:      true,
		}
		if err := products.Create(ctx, product); err != nil {
			return fmt.Errorf("seed product %s: %w", p.name, err)
		}
	}

	log.Info("seed data loaded",
		"users", len(demoUsers), "categories", len(demoCategories), "products", len(demoProducts))
	return nil
}
