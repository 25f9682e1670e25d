package handler

import (
	"errors"
	"net/http"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// usecaseのエラー分類をHTTPステータスへ写す。
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	var (
		ia *usecase.InvalidArgumentError
		nf *usecase.NotFoundError
		is *usecase.InsufficientStockError
		cf *usecase.ConflictError
	)

	switch {
	case errors.As(err, &ia):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: ia.Error()})
	case errors.As(err, &nf):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: nf.Error()})
	case errors.As(err, &is):
		//どの商品で止まったか分かるメッセージをそのまま返す
		return c.JSON(http.StatusConflict, ErrorResponse{Error: is.Error()})
	case errors.As(err, &cf):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: cf.Error()})
	case errors.Is(err, usecase.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	case errors.Is(err, usecase.ErrUnavailable):
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "service unavailable"})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get("user_id")
	id, ok := v.(int64)
	return id, ok
}
