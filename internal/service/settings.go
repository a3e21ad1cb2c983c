package service

import (
	"github.com/shopspring/decimal"

	"github.com/flicky/hortifruti-api/internal/config"
	"github.com/flicky/hortifruti-api/internal/dto"
	"github.com/flicky/hortifruti-api/internal/model"
)

// StoreSettings is the pricing and profile data shared by the settings
// endpoint and order pricing.
type StoreSettings struct {
	Name           string
	Email          string
	Phone          string
	Address        string
	OpenTime       string
	CloseTime      string
	DeliveryFee    decimal.Decimal
	MinOrder       decimal.Decimal
	PaymentMethods []model.PaymentMethod
	PixKey         string
}

func NewStoreSettings(cfg config.StoreConfig) StoreSettings {
	methods := make([]model.PaymentMethod, 0, len(cfg.PaymentMethods))
	for _, m := range cfg.PaymentMethods {
		methods = append(methods, model.PaymentMethod(m))
	}
	return StoreSettings{
		Name:           cfg.Name,
		Email:          cfg.Email,
		Phone:          cfg.Phone,
		Address:        cfg.Address,
		OpenTime:       cfg.OpenTime,
		CloseTime:      cfg.CloseTime,
		DeliveryFee:    decimal.NewFromFloat(cfg.DeliveryFee).Round(2),
		MinOrder:       decimal.NewFromFloat(cfg.MinOrder).Round(2),
		PaymentMethods: methods,
		PixKey:         cfg.PixKey,
	}
}

func (s StoreSettings) Accepts(method model.PaymentMethod) bool {
	for _, m := range s.PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

func (s StoreSettings) Response() dto.SettingsResponse {
	methods := make([]string, 0, len(s.PaymentMethods))
	for _, m := range s.PaymentMethods {
		methods = append(methods, string(m))
	}
	return dto.SettingsResponse{
		StoreName:      s.Name,
		StoreEmail:     s.Email,
		StorePhone:     s.Phone,
		StoreAddress:   s.Address,
		OpenTime:       s.OpenTime,
		CloseTime:      s.CloseTime,
		DeliveryFee:    s.DeliveryFee,
		MinOrder:       s.MinOrder,
		PaymentMethods: methods,
		PixKey:         s.PixKey,
	}
}
