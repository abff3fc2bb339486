package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/cuponcode/internal/client/client"
	"github.com/dmitrijs2005/cuponcode/internal/client/session"
	"github.com/dmitrijs2005/cuponcode/internal/client/validate"
	"github.com/dmitrijs2005/cuponcode/internal/common"
	"github.com/dmitrijs2005/cuponcode/internal/logging"
)

const (
	MinCouponPrice       = 1
	MaxCouponPrice       = 10000
	MaxDescriptionLength = 500
	// ReferralReward is what the referrer earns per signup.
	ReferralReward = 50
)

// CouponForm holds the inputs of a coupon upload.
type CouponForm struct {
	Category    string `validate:"required" msg:"Please select a category"`
	Code        string `validate:"required" msg:"Please enter the coupon code"`
	Description string `validate:"required" msg:"Please enter a description"`
	Price       int    `validate:"min=1,max=10000" msg:"Price must be between 1 and 10000 coins"`
}

// CouponQuery filters the marketplace listing.
type CouponQuery struct {
	Page     int
	Category string
	Sort     string
	Search   string
}

// MarketService wraps the marketplace and admin actions. Results are
// passed through untouched; only BuyCoupon changes local state.
type MarketService struct {
	bridge   client.Bridge
	sessions SessionStore
	v        *validate.Validator
	log      logging.Logger
}

func NewMarketService(bridge client.Bridge, sessions SessionStore, v *validate.Validator, log logging.Logger) *MarketService {
	if log == nil {
		log = logging.Discard()
	}
	return &MarketService{bridge: bridge, sessions: sessions, v: v, log: log.With("component", "market")}
}

func (m *MarketService) call(ctx context.Context, action client.Action, payload client.Payload) (*client.Result, error) {
	res := m.bridge.Call(ctx, action, payload)
	if !res.Success {
		return res, remoteError(action, res, common.MsgRequestFailed)
	}
	return res, nil
}

func (m *MarketService) Coupons(ctx context.Context, q CouponQuery) (*client.Result, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Sort == "" {
		q.Sort = "newest"
	}
	return m.call(ctx, client.ActionGetCoupons, client.Payload{
		"page":     q.Page,
		"category": q.Category,
		"sort":     q.Sort,
		"search":   q.Search,
	})
}

func (m *MarketService) Categories(ctx context.Context) (*client.Result, error) {
	return m.call(ctx, client.ActionGetCategories, nil)
}

// MyCoupons lists the user's uploads; status "" means all.
func (m *MarketService) MyCoupons(ctx context.Context, status string) (*client.Result, error) {
	return m.call(ctx, client.ActionGetMyCoupons, client.Payload{"status": orAll(status)})
}

func (m *MarketService) Vault(ctx context.Context) (*client.Result, error) {
	return m.call(ctx, client.ActionGetMyVault, nil)
}

func (m *MarketService) Wallet(ctx context.Context, page int, txType string) (*client.Result, error) {
	return m.call(ctx, client.ActionGetWallet, client.Payload{"page": max(page, 1), "type": orAll(txType)})
}

func (m *MarketService) ReferralInfo(ctx context.Context) (*client.Result, error) {
	return m.call(ctx, client.ActionGetReferralInfo, nil)
}

// UploadCoupon submits a coupon for review.
func (m *MarketService) UploadCoupon(ctx context.Context, form CouponForm) (*client.Result, error) {
	form.Code = strings.TrimSpace(form.Code)
	form.Description = strings.TrimSpace(form.Description)
	if err := m.v.Struct(form); err != nil {
		return nil, err
	}
	if len([]rune(form.Description)) > MaxDescriptionLength {
		return nil, validate.Fail(common.MsgDescriptionTooLong)
	}

	res := m.bridge.Call(ctx, client.ActionUploadCoupon, client.Payload{
		"category":    form.Category,
		"code":        form.Code,
		"description": form.Description,
		"price":       form.Price,
	})
	if !res.Success {
		return res, remoteError(client.ActionUploadCoupon, res, common.MsgUploadFailed)
	}
	return res, nil
}

// CanAfford checks the local balance against price. Callers run it
// before asking the user to confirm a purchase.
func (m *MarketService) CanAfford(ctx context.Context, price int64) error {
	sess, err := m.sessions.Get(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return validate.Fail(common.MsgLoginToPurchase)
	}
	if sess.Coins < price {
		return validate.Fail(common.InsufficientCoins(price))
	}
	return nil
}

// BuyCoupon purchases a coupon priced at price. The balance is checked
// locally first; on success the session balance is set to the one the
// backend returned.
func (m *MarketService) BuyCoupon(ctx context.Context, couponID string, price int64) (*client.Result, error) {
	if err := m.CanAfford(ctx, price); err != nil {
		return nil, err
	}

	res := m.bridge.Call(ctx, client.ActionBuyCoupon, client.Payload{"couponId": couponID})
	if !res.Success {
		return res, remoteError(client.ActionBuyCoupon, res, common.MsgPurchaseFailed)
	}

	var balance int64
	if err := res.Decode("newBalance", &balance); err != nil {
		m.log.Warn(ctx, "purchase response without balance", "error", err)
		return res, nil
	}
	if err := m.sessions.Update(ctx, session.CoinsPatch(balance)); err != nil {
		m.log.Error(ctx, "failed to update balance", "error", err)
	}
	return res, nil
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}
