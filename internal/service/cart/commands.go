package cart

// Op enumerates the mutation vocabulary. Transport adapters construct
// command values explicitly; the router never infers an operation from
// request shape.
type Op string

const (
	OpCreateOrGetCart  Op = "createOrGetCart"
	OpAddProduct       Op = "addProduct"
	OpUpdateItem       Op = "updateItem"
	OpRemoveItems      Op = "removeItems"
	OpMoveToWishlist   Op = "moveToWishlist"
	OpApplyCoupon      Op = "applyCoupon"
	OpRemoveCoupon     Op = "removeCoupon"
	OpEstimateShipping Op = "estimateShippingMethods"
)

// Command is one cart mutation. Implementations are plain value
// objects; Apply dispatches on the concrete type.
type Command interface {
	Op() Op
}

type CreateOrGetCartCommand struct{}

func (CreateOrGetCartCommand) Op() Op { return OpCreateOrGetCart }

type AddProductCommand struct {
	ProductID string
	SKU       string
	Quantity  int
	Options   map[string]string
}

func (AddProductCommand) Op() Op { return OpAddProduct }

type UpdateItemCommand struct {
	// CartID is optional; when supplied it must match the cart resolved
	// from the identity.
	CartID   string
	ItemID   string
	Quantity int
}

func (UpdateItemCommand) Op() Op { return OpUpdateItem }

type RemoveItemsCommand struct {
	CartID  string
	ItemIDs []string
}

func (RemoveItemsCommand) Op() Op { return OpRemoveItems }

type MoveToWishlistCommand struct {
	CartID  string
	ItemIDs []string
}

func (MoveToWishlistCommand) Op() Op { return OpMoveToWishlist }

type ApplyCouponCommand struct {
	Code string
}

func (ApplyCouponCommand) Op() Op { return OpApplyCoupon }

type RemoveCouponCommand struct{}

func (RemoveCouponCommand) Op() Op { return OpRemoveCoupon }

type EstimateShippingCommand struct {
	Country  string
	State    string
	Postcode string
	// Method optionally persists a chosen rate after estimation.
	Method string
}

func (EstimateShippingCommand) Op() Op { return OpEstimateShipping }
