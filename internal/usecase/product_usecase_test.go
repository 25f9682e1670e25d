package usecase_test

import (
	"context"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestListProducts_Validation(t *testing.T) {
	products := new(ProductRepoMock)
	uc := usecase.NewProductUsecase(products, testLogger())

	cases := []usecase.ListProductsInput{
		{Page: 0, Limit: 20},
		{Page: 1, Limit: 0},
		{Page: 1, Limit: 101},
		{Page: 1, Limit: 20, Sort: "bogus"},
	}
	for _, in := range cases {
		_, err := uc.ListProducts(context.Background(), in)
		var ia *usecase.InvalidArgumentError
		assert.ErrorAs(t, err, &ia)
	}
	products.AssertNotCalled(t, "ListInStock", mock.Anything, mock.Anything)
}

func TestListProducts_PriceRange(t *testing.T) {
	products := new(ProductRepoMock)
	uc := usecase.NewProductUsecase(products, testLogger())

	min := decimal.RequireFromString("100")
	max := decimal.RequireFromString("10")
	_, err := uc.ListProducts(context.Background(), usecase.ListProductsInput{
		Page: 1, Limit: 20, MinPrice: &min, MaxPrice: &max,
	})

	var ia *usecase.InvalidArgumentError
	assert.ErrorAs(t, err, &ia)
}

func TestListProducts_OK(t *testing.T) {
	products := new(ProductRepoMock)
	uc := usecase.NewProductUsecase(products, testLogger())

	products.On("ListInStock", mock.Anything, mock.MatchedBy(func(q repo.ProductListQuery) bool {
		return q.Page == 1 && q.Limit == 20 && q.Q == "lap"
	})).Return([]model.Product{{ID: 1, Name: "Laptop"}}, int64(1), nil)

	out, err := uc.ListProducts(context.Background(), usecase.ListProductsInput{
		Page: 1, Limit: 20, Q: " lap ",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	assert.Len(t, out.Items, 1)
	products.AssertExpectations(t)
}

func TestCreateProduct_DefaultStock(t *testing.T) {
	products := new(ProductRepoMock)
	uc := usecase.NewProductUsecase(products, testLogger())

	products.On("Create", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		//在庫未指定はデフォルト10
		return p.Name == "Laptop" && p.Stock == 10
	})).Return(model.Product{ID: 1, Name: "Laptop", Stock: 10}, nil)

	out, err := uc.CreateProduct(context.Background(), 1, usecase.CreateProductInput{
		Name:  "Laptop",
		Price: decimal.RequireFromString("999.99"),
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.ID)
	products.AssertExpectations(t)
}

func TestCreateProduct_Validation(t *testing.T) {
	products := new(ProductRepoMock)
	uc := usecase.NewProductUsecase(products, testLogger())

	negStock := int64(-1)
	cases := []usecase.CreateProductInput{
		{Name: "", Price: decimal.NewFromInt(10)},
		{Name: "A", Price: decimal.Zero},
		{Name: "A", Price: decimal.NewFromInt(-5)},
		{Name: "A", Price: decimal.NewFromInt(10), Stock: &negStock},
	}
	for _, in := range cases {
		_, err := uc.CreateProduct(context.Background(), 1, in)
		var ia *usecase.InvalidArgumentError
		assert.ErrorAs(t, err, &ia)
	}
	products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetProductDetail_NotFound(t *testing.T) {
	products := new(ProductRepoMock)
	uc := usecase.NewProductUsecase(products, testLogger())

	products.On("FindByID", mock.Anything, int64(999)).Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.GetProductDetail(context.Background(), 999)

	var nf *usecase.NotFoundError
	if assert.ErrorAs(t, err, &nf) {
		assert.Equal(t, int64(999), nf.ID)
	}
}
