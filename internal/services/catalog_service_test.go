package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"keyshop/internal/apperr"
	"keyshop/internal/domain"
)

func TestCatalogService_CreateProduct(t *testing.T) {
	valid := CreateProductInput{
		Name:            "Dungeon Forge",
		Slug:            "dungeon-forge",
		Type:            "game",
		Price:           decimal.RequireFromString("49.99"),
		Stock:           domain.Stock{Total: 2},
		ActivationCodes: []string{"df-001", "df-002", "df-003"},
	}

	tests := []struct {
		name    string
		mutate  func(in *CreateProductInput)
		wantErr bool
	}{
		{name: "valid product", mutate: func(in *CreateProductInput) {}},
		{name: "missing name", mutate: func(in *CreateProductInput) { in.Name = "" }, wantErr: true},
		{name: "zero price", mutate: func(in *CreateProductInput) { in.Price = decimal.Zero }, wantErr: true},
		{name: "negative price", mutate: func(in *CreateProductInput) { in.Price = decimal.RequireFromString("-1") }, wantErr: true},
		{name: "negative stock", mutate: func(in *CreateProductInput) { in.Stock.Total = -1 }, wantErr: true},
		{name: "fewer codes than stock", mutate: func(in *CreateProductInput) { in.ActivationCodes = []string{"df-001"} }, wantErr: true},
		{name: "duplicate codes", mutate: func(in *CreateProductInput) { in.ActivationCodes = []string{"x", "x", "y"} }, wantErr: true},
		{name: "empty code", mutate: func(in *CreateProductInput) { in.ActivationCodes = []string{"x", "", "y"} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewCatalogService(newTestStore())
			in := valid
			in.ActivationCodes = append([]string(nil), valid.ActivationCodes...)
			tt.mutate(&in)

			p, err := svc.CreateProduct(context.Background(), in)

			if tt.wantErr {
				assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
				return
			}
			assert.NoError(t, err)
			assert.NotEmpty(t, p.ID)
			assert.Equal(t, valid.Name, p.Name)
			assert.Len(t, p.ActivationCodes, 3)
		})
	}
}

func TestCatalogService_ListAndDelete(t *testing.T) {
	st := newTestStore()
	seedProduct(t, st, "p1", "Game A", "30.00", 5, makeCodes("a", 5))
	seedProduct(t, st, "p2", "Game B", "20.00", 5, makeCodes("b", 5))
	svc := NewCatalogService(st)

	products, err := svc.ListProducts(context.Background())
	assert.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, "p1", products[0].ID)

	p, err := svc.GetProduct(context.Background(), "p2")
	assert.NoError(t, err)
	assert.Equal(t, "Game B", p.Name)

	assert.NoError(t, svc.DeleteProduct(context.Background(), "p1"))

	products, err = svc.ListProducts(context.Background())
	assert.NoError(t, err)
	assert.Len(t, products, 1)

	err = svc.DeleteProduct(context.Background(), "p1")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	_, err = svc.GetProduct(context.Background(), "p1")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}
