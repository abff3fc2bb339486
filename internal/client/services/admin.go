package services

import (
	"context"

	"github.com/dmitrijs2005/cuponcode/internal/client/client"
	"github.com/dmitrijs2005/cuponcode/internal/common"
)

// admin runs an admin action. Non-admins are refused without a backend
// call; the backend enforces the same rule.
func (m *MarketService) admin(ctx context.Context, action client.Action, payload client.Payload) (*client.Result, error) {
	if !m.sessions.IsAdmin(ctx) {
		return nil, &RemoteError{Action: action, Message: common.MsgAdminOnly}
	}
	return m.call(ctx, action, payload)
}

func (m *MarketService) AdminStats(ctx context.Context) (*client.Result, error) {
	return m.admin(ctx, client.ActionAdminGetStats, nil)
}

func (m *MarketService) AdminPendingCoupons(ctx context.Context) (*client.Result, error) {
	return m.admin(ctx, client.ActionAdminGetPendingCoupons, nil)
}

// AdminVerifyCoupon approves or rejects a pending coupon.
func (m *MarketService) AdminVerifyCoupon(ctx context.Context, couponID, status string) (*client.Result, error) {
	return m.admin(ctx, client.ActionAdminVerifyCoupon, client.Payload{"couponId": couponID, "status": status})
}

func (m *MarketService) AdminAllCoupons(ctx context.Context, page int, status string) (*client.Result, error) {
	return m.admin(ctx, client.ActionAdminGetAllCoupons, client.Payload{"page": max(page, 1), "status": orAll(status)})
}

// AdminManageCategory runs a create, update or delete on a category. The
// operation travels as categoryAction so it cannot clash with the
// envelope's action.
func (m *MarketService) AdminManageCategory(ctx context.Context, op string, category map[string]any) (*client.Result, error) {
	payload := client.Payload{}
	for k, v := range category {
		payload[k] = v
	}
	payload["categoryAction"] = op
	return m.admin(ctx, client.ActionAdminManageCategory, payload)
}

func (m *MarketService) AdminUsers(ctx context.Context, page int, search string) (*client.Result, error) {
	return m.admin(ctx, client.ActionAdminGetUsers, client.Payload{"page": max(page, 1), "search": search})
}

func (m *MarketService) AdminManageUser(ctx context.Context, targetUserID, userAction string) (*client.Result, error) {
	return m.admin(ctx, client.ActionAdminManageUser, client.Payload{"targetUserId": targetUserID, "userAction": userAction})
}

func (m *MarketService) AdminAdjustCoins(ctx context.Context, targetUserID string, amount int64, reason string) (*client.Result, error) {
	return m.admin(ctx, client.ActionAdminAdjustCoins, client.Payload{
		"targetUserId": targetUserID,
		"amount":       amount,
		"reason":       reason,
	})
}

func (m *MarketService) AdminTransactions(ctx context.Context, page int, txType string) (*client.Result, error) {
	return m.admin(ctx, client.ActionAdminGetTransactions, client.Payload{"page": max(page, 1), "type": orAll(txType)})
}
