package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/cuponcode/internal/client/confirm"
	"github.com/dmitrijs2005/cuponcode/internal/client/output"
	"github.com/dmitrijs2005/cuponcode/internal/client/validate"
	"github.com/dmitrijs2005/cuponcode/internal/common"
)

const defaultCategoryIcon = "📁"

const adminUsage = "admin stats | coupons [status] [page] | pending | approve <id> | reject <id> | " +
	"users [page] [search] | user <suspend|activate|delete> <id> | coins <userId> <amount> <reason> | " +
	"transactions [type] [page] | category <add|edit <id>|delete <id>>"

type adminUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Coins     int64  `json:"coins"`
	Status    string `json:"status"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

// requireAdmin guards the admin commands. A logged-in non-admin is told why
// the command was refused.
func (a *App) requireAdmin(ctx context.Context) bool {
	if a.store.RequireAdmin(ctx, "/admin") {
		return true
	}
	if a.isLoggedIn(ctx) {
		a.printer.Warning("%s", common.MsgAdminOnly)
	}
	return false
}

// Admin dispatches the admin panel subcommands.
func (a *App) Admin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage(adminUsage)
	}
	if !a.requireAdmin(ctx) {
		return nil
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "stats":
		return a.adminStats(ctx)
	case "coupons":
		return a.adminCoupons(ctx, rest)
	case "pending":
		return a.adminPending(ctx)
	case "approve":
		return a.adminVerify(ctx, rest, "approved")
	case "reject":
		return a.adminVerify(ctx, rest, "rejected")
	case "users":
		return a.adminUsers(ctx, rest)
	case "user":
		return a.adminManageUser(ctx, rest)
	case "coins":
		return a.adminCoins(ctx, rest)
	case "transactions":
		return a.adminTransactions(ctx, rest)
	case "category":
		return a.adminCategory(ctx, rest)
	default:
		return usage(adminUsage)
	}
}

func (a *App) adminStats(ctx context.Context) error {
	res, err := a.market.AdminStats(ctx)
	if err != nil {
		return err
	}
	var stats struct {
		TotalUsers        int64 `json:"totalUsers"`
		TotalCoupons      int64 `json:"totalCoupons"`
		PendingCoupons    int64 `json:"pendingCoupons"`
		TotalTransactions int64 `json:"totalTransactions"`
		CoinsCirculating  int64 `json:"coinsCirculating"`
	}
	if err := res.Decode("stats", &stats); err != nil {
		a.log.Warn(ctx, "stats response without stats", "error", err)
	}

	a.printer.Header("Dashboard")
	t := output.NewTable(a.printer.Writer(), "Metric", "Value")
	t.AddRow("Users", strconv.FormatInt(stats.TotalUsers, 10))
	t.AddRow("Coupons", strconv.FormatInt(stats.TotalCoupons, 10))
	t.AddRow("Pending coupons", strconv.FormatInt(stats.PendingCoupons, 10))
	t.AddRow("Transactions", strconv.FormatInt(stats.TotalTransactions, 10))
	t.AddRow("Coins in circulation", strconv.FormatInt(stats.CoinsCirculating, 10))
	return t.Render()
}

// statusAndPage reads the optional "[filter] [page]" arguments.
func statusAndPage(args []string, cmd string) (string, int, error) {
	filter := ""
	if len(args) > 0 {
		filter = args[0]
	}
	page, err := pageArg(args[min(len(args), 1):], cmd)
	if err != nil {
		return "", 0, err
	}
	return filter, page, nil
}

func (a *App) adminCoupons(ctx context.Context, args []string) error {
	status, page, err := statusAndPage(args, "admin coupons [status]")
	if err != nil {
		return err
	}
	res, err := a.market.AdminAllCoupons(ctx, page, status)
	if err != nil {
		return err
	}
	return a.renderAdminCoupons(res.Decode)
}

func (a *App) adminPending(ctx context.Context) error {
	res, err := a.market.AdminPendingCoupons(ctx)
	if err != nil {
		return err
	}
	return a.renderAdminCoupons(res.Decode)
}

func (a *App) renderAdminCoupons(decode func(string, any) error) error {
	var coupons []coupon
	_ = decode("coupons", &coupons)
	if len(coupons) == 0 {
		a.printer.Info("No coupons match the current filter.")
		return nil
	}

	t := output.NewTable(a.printer.Writer(), "ID", "Category", "Description", "Code", "Price", "Uploader", "Status", "Date")
	for _, c := range coupons {
		uploader := c.UploaderName
		if uploader == "" {
			uploader = "N/A"
		}
		t.AddRow(c.ID, c.Category, c.Description, c.Code, strconv.FormatInt(c.Price, 10), uploader, c.Status, c.CreatedAt)
	}
	return t.Render()
}

// adminVerify approves or rejects a pending coupon after a confirmation.
func (a *App) adminVerify(ctx context.Context, args []string, status string) error {
	verb := "approve"
	if status == "rejected" {
		verb = "reject"
	}
	if len(args) != 1 {
		return usage("admin " + verb + " <id>")
	}

	id := args[0]
	d := confirm.Request(capitalize(verb)+" Coupon?",
		fmt.Sprintf("Are you sure you want to %s this coupon?", verb),
		func(ctx context.Context) error {
			_, err := a.market.AdminVerifyCoupon(ctx, id, status)
			return err
		})
	ok, err := a.decide(ctx, d)
	if err != nil {
		return err
	}
	if !ok {
		a.printer.Info("Cancelled")
		return nil
	}
	a.printer.Success("Coupon %s successfully!", status)
	return nil
}

func (a *App) adminUsers(ctx context.Context, args []string) error {
	page, err := pageArg(args[:min(len(args), 1)], "admin users")
	if err != nil {
		return err
	}
	search := ""
	if len(args) > 1 {
		search = strings.Join(args[1:], " ")
	}

	res, err := a.market.AdminUsers(ctx, page, search)
	if err != nil {
		return err
	}
	var users []adminUser
	_ = res.Decode("users", &users)
	if len(users) == 0 {
		a.printer.Info("No users found.")
		return nil
	}

	t := output.NewTable(a.printer.Writer(), "ID", "User", "Email", "Coins", "Status", "Role", "Joined")
	for _, u := range users {
		t.AddRow(u.ID, u.Username, u.Email, strconv.FormatInt(u.Coins, 10), u.Status, u.Role, u.CreatedAt)
	}
	return t.Render()
}

var userActions = map[string]string{
	"suspend":  "suspended",
	"activate": "activated",
	"delete":   "deleted",
}

// adminManageUser suspends, activates or deletes an account after a
// confirmation.
func (a *App) adminManageUser(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("admin user <suspend|activate|delete> <id>")
	}
	action, id := args[0], args[1]
	done, ok := userActions[action]
	if !ok {
		return usage("admin user <suspend|activate|delete> <id>")
	}

	d := confirm.Request(capitalize(action)+" User?",
		fmt.Sprintf("Are you sure you want to %s this user?", action),
		func(ctx context.Context) error {
			_, err := a.market.AdminManageUser(ctx, id, action)
			return err
		})
	confirmed, err := a.decide(ctx, d)
	if err != nil {
		return err
	}
	if !confirmed {
		a.printer.Info("Cancelled")
		return nil
	}
	a.printer.Success("User %s successfully!", done)
	return nil
}

// adminCoins adds (positive) or deducts (negative) coins with a reason.
func (a *App) adminCoins(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("admin coins <userId> <amount> <reason>")
	}
	amount, err := strconv.ParseInt(args[1], 10, 64)
	reason := strings.TrimSpace(strings.Join(args[2:], " "))
	if err != nil || amount == 0 || reason == "" {
		return validate.Fail(common.MsgFillAllFields)
	}

	if _, err := a.market.AdminAdjustCoins(ctx, args[0], amount, reason); err != nil {
		return err
	}
	a.printer.Success("Coins adjusted successfully!")
	return nil
}

func (a *App) adminTransactions(ctx context.Context, args []string) error {
	txType, page, err := statusAndPage(args, "admin transactions [type]")
	if err != nil {
		return err
	}
	res, err := a.market.AdminTransactions(ctx, page, txType)
	if err != nil {
		return err
	}
	var txs []transaction
	_ = res.Decode("transactions", &txs)
	if len(txs) == 0 {
		a.printer.Info("No transactions found.")
		return nil
	}

	t := output.NewTable(a.printer.Writer(), "Date", "User", "Type", "Description", "Amount")
	for _, tx := range txs {
		user := tx.Username
		if user == "" {
			user = "N/A"
		}
		t.AddRow(tx.CreatedAt, user, tx.Type, tx.Description, signed(tx.Amount))
	}
	return t.Render()
}

// adminCategory creates, renames or deletes a category.
func (a *App) adminCategory(ctx context.Context, args []string) error {
	const help = "admin category <add|edit <id>|delete <id>>"
	if len(args) == 0 {
		return usage(help)
	}

	switch {
	case args[0] == "add" && len(args) == 1:
		name, icon, err := a.categoryForm()
		if err != nil {
			return err
		}
		if _, err := a.market.AdminManageCategory(ctx, "create", map[string]any{"name": name, "icon": icon}); err != nil {
			return err
		}
		a.printer.Success("Category added!")

	case args[0] == "edit" && len(args) == 2:
		name, icon, err := a.categoryForm()
		if err != nil {
			return err
		}
		if _, err := a.market.AdminManageCategory(ctx, "update", map[string]any{"id": args[1], "name": name, "icon": icon}); err != nil {
			return err
		}
		a.printer.Success("Category updated!")

	case args[0] == "delete" && len(args) == 2:
		id := args[1]
		d := confirm.Request("Delete Category?", "Delete this category? This cannot be undone.",
			func(ctx context.Context) error {
				_, err := a.market.AdminManageCategory(ctx, "delete", map[string]any{"id": id})
				return err
			})
		ok, err := a.decide(ctx, d)
		if err != nil {
			return err
		}
		if !ok {
			a.printer.Info("Cancelled")
			return nil
		}
		a.printer.Success("Category deleted!")

	default:
		return usage(help)
	}
	return nil
}

func (a *App) categoryForm() (name, icon string, err error) {
	if name, err = a.prompt("Category name"); err != nil {
		return "", "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", validate.Fail(common.MsgFillAllFields)
	}
	if icon, err = a.prompt("Icon (emoji, default " + defaultCategoryIcon + ")"); err != nil {
		return "", "", err
	}
	icon = strings.TrimSpace(icon)
	if icon == "" {
		icon = defaultCategoryIcon
	}
	return name, icon, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
