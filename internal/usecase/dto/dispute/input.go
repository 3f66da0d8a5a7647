package disputedto

type OpenDisputeInput struct {
	BuyerID     string `json:"-" validate:"required"`
	OrderID     string `json:"order_id" validate:"required"`
	Reason      string `json:"reason" validate:"required,oneof=not_received not_as_described counterfeit damaged other"`
	Description string `json:"description" validate:"max=2000"`
	ProofUrl    string `json:"proof_url" validate:"omitempty,url"`
}

type ResolveDisputeInput struct {
	DisputeID      string `json:"-" validate:"required"`
	InFavorOfBuyer bool   `json:"in_favor_of_buyer"`
	ResolvedBy     string `json:"-"`
}
