package sendcloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/config"
	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Client buys parcel labels through the SendCloud v2 API.
type Client struct {
	baseURL        string
	publicKey      string
	secretKey      string
	shippingMethod int
	defaultWeightG int
	httpClient     *http.Client
	limiter        *rate.Limiter
}

func NewClient(cfg config.SendCloud) *Client {
	return &Client{
		baseURL:        cfg.BaseURL,
		publicKey:      cfg.PublicKey,
		secretKey:      cfg.SecretKey,
		shippingMethod: cfg.ShippingMethod,
		defaultWeightG: cfg.DefaultWeightG,
		httpClient:     &http.Client{Timeout: 15 * time.Second},
		// SendCloud allows bursts, but sustained label buying is throttled server side
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
	}
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.publicKey, c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("%w: sendcloud status %d: %s", domain.ErrShippingFailed, resp.StatusCode, apiErr.Error.Message)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) weight(req domain.ParcelRequest) int {
	if req.WeightGrams > 0 {
		return req.WeightGrams
	}
	return c.defaultWeightG
}

// QuoteLabel returns the price of the configured shipping method for the route.
func (c *Client) QuoteLabel(ctx context.Context, req domain.ParcelRequest) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("shipping_method_id", strconv.Itoa(c.shippingMethod))
	q.Set("from_country", req.From.Country)
	q.Set("to_country", req.To.Country)
	q.Set("weight", strconv.Itoa(c.weight(req)))
	q.Set("weight_unit", "gram")

	var prices []struct {
		Price     string `json:"price"`
		Currency  string `json:"currency"`
		ToCountry string `json:"to_country"`
	}
	if err := c.do(ctx, http.MethodGet, "/shipping-price?"+q.Encode(), nil, &prices); err != nil {
		return decimal.Zero, err
	}
	if len(prices) == 0 || prices[0].Price == "" {
		return decimal.Zero, fmt.Errorf("%w: no price for route %s -> %s", domain.ErrShippingFailed, req.From.Country, req.To.Country)
	}

	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: bad price %q", domain.ErrShippingFailed, prices[0].Price)
	}
	return price.Round(2), nil
}

type parcel struct {
	Name                    string         `json:"name"`
	Address                 string         `json:"address"`
	HouseNumber             string         `json:"house_number,omitempty"`
	City                    string         `json:"city"`
	PostalCode              string         `json:"postal_code"`
	Country                 string         `json:"country"`
	Email                   string         `json:"email,omitempty"`
	Telephone               string         `json:"telephone,omitempty"`
	OrderNumber             string         `json:"order_number"`
	Weight                  string         `json:"weight"`
	RequestLabel            bool           `json:"request_label"`
	Shipment                parcelShipment `json:"shipment"`
	TotalOrderValue         string         `json:"total_order_value,omitempty"`
	TotalOrderValueCurrency string         `json:"total_order_value_currency,omitempty"`
	SenderAddress           *senderAddress `json:"from_address,omitempty"`
}

type parcelShipment struct {
	ID int `json:"id"`
}

type senderAddress struct {
	Name        string `json:"name"`
	Address     string `json:"address_1"`
	HouseNumber string `json:"house_number,omitempty"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	Country     string `json:"country"`
}

type parcelResponse struct {
	Parcel struct {
		ID             int    `json:"id"`
		TrackingNumber string `json:"tracking_number"`
		TrackingURL    string `json:"tracking_url"`
		Carrier        struct {
			Code string `json:"code"`
		} `json:"carrier"`
		Label struct {
			NormalPrinter []string `json:"normal_printer"`
			LabelPrinter  string   `json:"label_printer"`
		} `json:"label"`
	} `json:"parcel"`
}

// CreateLabel announces a parcel and buys its label in one call.
func (c *Client) CreateLabel(ctx context.Context, req domain.ParcelRequest) (*domain.Shipment, error) {
	cost, err := c.QuoteLabel(ctx, req)
	if err != nil {
		return nil, err
	}

	body := map[string]parcel{"parcel": {
		Name:                    req.To.Name,
		Address:                 req.To.Street,
		HouseNumber:             req.To.HouseNumber,
		City:                    req.To.City,
		PostalCode:              req.To.PostalCode,
		Country:                 req.To.Country,
		Email:                   req.To.Email,
		Telephone:               req.To.Phone,
		OrderNumber:             req.OrderID,
		Weight:                  decimal.NewFromInt(int64(c.weight(req))).Div(decimal.NewFromInt(1000)).StringFixed(3),
		RequestLabel:            true,
		Shipment:                parcelShipment{ID: c.shippingMethod},
		TotalOrderValue:         req.Value.StringFixed(2),
		TotalOrderValueCurrency: req.Currency,
		SenderAddress: &senderAddress{
			Name:        req.From.Name,
			Address:     req.From.Street,
			HouseNumber: req.From.HouseNumber,
			City:        req.From.City,
			PostalCode:  req.From.PostalCode,
			Country:     req.From.Country,
		},
	}}

	var resp parcelResponse
	if err := c.do(ctx, http.MethodPost, "/parcels", body, &resp); err != nil {
		return nil, err
	}
	if resp.Parcel.TrackingNumber == "" {
		return nil, fmt.Errorf("%w: parcel %d has no tracking number", domain.ErrShippingFailed, resp.Parcel.ID)
	}

	label := resp.Parcel.Label.LabelPrinter
	if label == "" && len(resp.Parcel.Label.NormalPrinter) > 0 {
		label = resp.Parcel.Label.NormalPrinter[0]
	}

	return &domain.Shipment{
		Carrier:        resp.Parcel.Carrier.Code,
		TrackingNumber: resp.Parcel.TrackingNumber,
		TrackingURL:    resp.Parcel.TrackingURL,
		LabelURL:       label,
		Cost:           cost,
	}, nil
}
