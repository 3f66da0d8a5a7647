package httpapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/usecase"
	listingdto "github.com/LavaJover/shvark-market-service/internal/usecase/dto/listing"
	orderdto "github.com/LavaJover/shvark-market-service/internal/usecase/dto/order"
)

type mcpTool struct {
	Name        string
	Description string
	Scope       domain.APIScope
	InputSchema map[string]interface{}
	call        func(ctx context.Context, p *domain.Principal, args json.RawMessage) (interface{}, error)
}

type toolDescriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func (h *Handler) toolDescriptors() []toolDescriptor {
	out := make([]toolDescriptor, 0, len(h.toolOrder))
	for _, name := range h.toolOrder {
		t := h.tools[name]
		out = append(out, toolDescriptor{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}
	return out
}

func decodeArgs(args json.RawMessage, dst interface{}) error {
	if err := json.Unmarshal(args, dst); err != nil {
		return fmt.Errorf("%w: malformed arguments: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// ============= JSON schemas =============

func objectSchema(required []string, props map[string]interface{}) map[string]interface{} {
	schema := map[string]interface{}{"type": "object", "properties": props}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}

var (
	conditionProp = map[string]interface{}{
		"type": "string",
		"enum": []string{"mint", "near_mint", "excellent", "good", "light_played", "played", "poor"},
	}
	addressSchema = objectSchema(
		[]string{"name", "street", "city", "postal_code", "country"},
		map[string]interface{}{
			"name":         prop("string", "recipient name"),
			"street":       prop("string", "street"),
			"house_number": prop("string", "house number"),
			"city":         prop("string", "city"),
			"postal_code":  prop("string", "postal code"),
			"country":      prop("string", "ISO 3166-1 alpha-2 country code"),
			"email":        prop("string", "contact email"),
			"phone":        prop("string", "contact phone"),
		},
	)
)

// ============= Tools =============

type listingIDArgs struct {
	ListingID string `json:"listing_id" validate:"required"`
}

type orderIDArgs struct {
	OrderID string `json:"order_id" validate:"required"`
}

type purchaseArgs struct {
	ListingID       string         `json:"listing_id"`
	ListingIDs      []string       `json:"listing_ids"`
	BundleID        string         `json:"bundle_id"`
	ShippingAddress domain.Address `json:"shipping_address"`
	CallbackURL     string         `json:"callback_url"`
}

func (h *Handler) addTool(t *mcpTool) {
	h.tools[t.Name] = t
	h.toolOrder = append(h.toolOrder, t.Name)
}

func (h *Handler) registerTools() {
	h.tools = make(map[string]*mcpTool)

	h.addTool(&mcpTool{
		Name:        "search_listings",
		Description: "Search active trading card listings by text, set, condition and price.",
		Scope:       domain.ScopeRead,
		InputSchema: objectSchema(nil, map[string]interface{}{
			"query":     prop("string", "free text, typos tolerated"),
			"set_name":  prop("string", "card set"),
			"condition": conditionProp,
			"seller_id": prop("string", "only this seller"),
			"min_price": prop("string", "decimal"),
			"max_price": prop("string", "decimal"),
			"page":      prop("integer", "1-based page"),
			"limit":     prop("integer", "page size, max 100"),
		}),
		call: func(ctx context.Context, _ *domain.Principal, args json.RawMessage) (interface{}, error) {
			var input listingdto.SearchListingsInput
			if err := decodeArgs(args, &input); err != nil {
				return nil, err
			}
			if err := h.validator.Validate(&input); err != nil {
				return nil, err
			}
			return h.listings.SearchListings(ctx, &input)
		},
	})

	h.addTool(&mcpTool{
		Name:        "get_listing",
		Description: "Fetch one listing by id.",
		Scope:       domain.ScopeRead,
		InputSchema: objectSchema([]string{"listing_id"}, map[string]interface{}{
			"listing_id": prop("string", "listing id"),
		}),
		call: func(ctx context.Context, _ *domain.Principal, args json.RawMessage) (interface{}, error) {
			var in listingIDArgs
			if err := decodeArgs(args, &in); err != nil {
				return nil, err
			}
			if err := h.validator.Validate(&in); err != nil {
				return nil, err
			}
			listing, err := h.listings.GetListing(ctx, in.ListingID)
			if err != nil {
				return nil, err
			}
			return usecase.ToListingResult(listing), nil
		},
	})

	h.addTool(&mcpTool{
		Name:        "create_listing",
		Description: "List a card for sale on behalf of the API key owner.",
		Scope:       domain.ScopeTrade,
		InputSchema: objectSchema([]string{"card_name", "condition", "price"}, map[string]interface{}{
			"card_name":       prop("string", "card name"),
			"set_name":        prop("string", "card set"),
			"card_number":     prop("string", "collector number"),
			"condition":       conditionProp,
			"language":        prop("string", "ISO 639-1 code"),
			"graded":          prop("boolean", "slabbed by a grading company"),
			"grading_company": prop("string", "PSA, BGS, CGC, ..."),
			"grade":           prop("number", "0-10"),
			"price":           prop("string", "decimal asking price"),
			"currency":        prop("string", "ISO 4217 code"),
			"quantity":        prop("integer", "copies available"),
			"image_urls":      map[string]interface{}{"type": "array", "items": prop("string", "image url")},
			"draft":           prop("boolean", "save without publishing"),
		}),
		call: func(ctx context.Context, p *domain.Principal, args json.RawMessage) (interface{}, error) {
			var input listingdto.CreateListingInput
			if err := decodeArgs(args, &input); err != nil {
				return nil, err
			}
			input.SellerID = p.UserID
			if err := h.validator.Validate(&input); err != nil {
				return nil, err
			}
			listing, err := h.listings.CreateListing(ctx, &input)
			if err != nil {
				return nil, err
			}
			return usecase.ToListingResult(listing), nil
		},
	})

	h.addTool(&mcpTool{
		Name:        "evaluate_price",
		Description: "Compare a price with comparable listings of the same card: median, range and verdict under/fair/over.",
		Scope:       domain.ScopeRead,
		InputSchema: objectSchema(nil, map[string]interface{}{
			"listing_id": prop("string", "evaluate an existing listing"),
			"card_name":  prop("string", "card name, required without listing_id"),
			"set_name":   prop("string", "card set"),
			"condition":  conditionProp,
			"price":      prop("string", "decimal asking price"),
		}),
		call: func(ctx context.Context, _ *domain.Principal, args json.RawMessage) (interface{}, error) {
			var input usecase.EvaluatePriceInput
			if err := decodeArgs(args, &input); err != nil {
				return nil, err
			}
			return h.evaluate(ctx, &input)
		},
	})

	h.addTool(&mcpTool{
		Name:        "purchase_item",
		Description: "Buy a listing, several listings from one seller, or a bundle. Returns the order and a payment client secret.",
		Scope:       domain.ScopeTrade,
		InputSchema: objectSchema([]string{"shipping_address"}, map[string]interface{}{
			"listing_id":       prop("string", "single listing"),
			"listing_ids":      map[string]interface{}{"type": "array", "items": prop("string", "listing id")},
			"bundle_id":        prop("string", "bundle instead of listings"),
			"shipping_address": addressSchema,
			"callback_url":     prop("string", "receives signed order status webhooks"),
		}),
		call: func(ctx context.Context, p *domain.Principal, args json.RawMessage) (interface{}, error) {
			var in purchaseArgs
			if err := decodeArgs(args, &in); err != nil {
				return nil, err
			}
			input := &orderdto.CreateOrderInput{
				BuyerID:         p.UserID,
				ListingIDs:      in.ListingIDs,
				BundleID:        in.BundleID,
				ShippingAddress: in.ShippingAddress,
				Channel:         domain.ChannelMCP,
				CallbackURL:     in.CallbackURL,
			}
			if in.ListingID != "" {
				input.ListingIDs = append([]string{in.ListingID}, input.ListingIDs...)
			}
			if err := h.validator.Validate(input); err != nil {
				return nil, err
			}
			order, err := h.orders.CreateOrder(ctx, input)
			if err != nil {
				return nil, err
			}
			return orderdto.ToOrderOutput(order, true), nil
		},
	})

	h.addTool(&mcpTool{
		Name:        "get_order_status",
		Description: "Status, fees and tracking of an order the caller bought or sold.",
		Scope:       domain.ScopeRead,
		InputSchema: objectSchema([]string{"order_id"}, map[string]interface{}{
			"order_id": prop("string", "order id"),
		}),
		call: func(ctx context.Context, p *domain.Principal, args json.RawMessage) (interface{}, error) {
			var in orderIDArgs
			if err := decodeArgs(args, &in); err != nil {
				return nil, err
			}
			if err := h.validator.Validate(&in); err != nil {
				return nil, err
			}
			order, err := h.orders.GetOrderForUser(ctx, p.UserID, in.OrderID)
			if err != nil {
				return nil, err
			}
			return orderdto.ToOrderOutput(order, false), nil
		},
	})

	h.addTool(&mcpTool{
		Name:        "get_wallet_balance",
		Description: "Seller balance: pending, available and paid out.",
		Scope:       domain.ScopeRead,
		InputSchema: objectSchema(nil, map[string]interface{}{}),
		call: func(ctx context.Context, p *domain.Principal, _ json.RawMessage) (interface{}, error) {
			return h.wallet.GetBalance(ctx, p.UserID)
		},
	})

	h.addTool(&mcpTool{
		Name:        "calculate_fees",
		Description: "Fee breakdown for a sale: buyer protection, seller commission, shipping margin and instant payout fee.",
		Scope:       domain.ScopeRead,
		InputSchema: objectSchema([]string{"item_price"}, map[string]interface{}{
			"buyer_tier":          map[string]interface{}{"type": "string", "enum": []string{"free", "pro"}},
			"seller_tier":         map[string]interface{}{"type": "string", "enum": []string{"free", "pro"}},
			"item_price":          prop("string", "decimal"),
			"seller_risk_tier":    map[string]interface{}{"type": "string", "enum": []string{"A", "B", "C"}},
			"buyer_monthly_gmv":   prop("string", "decimal"),
			"shipping_label_cost": prop("string", "decimal"),
			"instant_payout":      prop("boolean", "seller wants an instant payout"),
		}),
		call: func(_ context.Context, _ *domain.Principal, args json.RawMessage) (interface{}, error) {
			var req calculateFeesRequest
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return h.computeFees(&req)
		},
	})
}
