package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/cuponcode/internal/client/confirm"
	"github.com/dmitrijs2005/cuponcode/internal/client/output"
	"github.com/dmitrijs2005/cuponcode/internal/client/services"
)

var (
	errUsage     = errors.New("usage")
	errNotListed = errors.New("coupon not in current listing")
)

func usage(text string) error {
	return fmt.Errorf("%w: %s", errUsage, text)
}

type coupon struct {
	ID           string `json:"id"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	Code         string `json:"code"`
	Price        int64  `json:"price"`
	Status       string `json:"status"`
	UploaderName string `json:"uploaderName"`
	CreatedAt    string `json:"createdAt"`
}

type transaction struct {
	CreatedAt   string `json:"createdAt"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Balance     int64  `json:"balance"`
	Username    string `json:"username"`
}

type category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

func pageArg(args []string, cmd string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	page, err := strconv.Atoi(args[0])
	if err != nil || page < 1 {
		return 0, usage(cmd + " [page]")
	}
	return page, nil
}

// Coupons lists a marketplace page. The listing is remembered for buy.
func (a *App) Coupons(ctx context.Context, args []string) error {
	if !a.store.RequireAuth(ctx, "/dashboard") {
		return nil
	}
	page, err := pageArg(args, "coupons")
	if err != nil {
		return err
	}

	res, err := a.market.Coupons(ctx, services.CouponQuery{Page: page})
	if err != nil {
		return err
	}
	var coupons []coupon
	if err := res.Decode("coupons", &coupons); err != nil {
		a.log.Warn(ctx, "coupon listing without coupons", "error", err)
	}

	listing := make(map[string]coupon, len(coupons))
	for _, c := range coupons {
		listing[c.ID] = c
	}
	a.mu.Lock()
	a.listing = listing
	a.mu.Unlock()

	if len(coupons) == 0 {
		a.printer.Info("No coupons available")
		return nil
	}

	a.printer.Header(fmt.Sprintf("Marketplace, page %d", page))
	t := output.NewTable(a.printer.Writer(), "ID", "Category", "Description", "Price", "Seller")
	for _, c := range coupons {
		seller := c.UploaderName
		if seller == "" {
			seller = "Anonymous"
		}
		t.AddRow(c.ID, c.Category, c.Description, strconv.FormatInt(c.Price, 10), seller)
	}
	return t.Render()
}

// decide shows d and resolves it from a y/N answer. It reports whether the
// action ran.
func (a *App) decide(ctx context.Context, d *confirm.Decision) (bool, error) {
	a.printer.Header(d.Title)
	answer, err := a.prompt(d.Message + " [y/N]")
	if err != nil {
		return false, err
	}
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		_ = d.Cancel()
		return false, nil
	}
	return true, d.Confirm(ctx)
}

// Buy purchases a coupon from the last listing after a confirmation.
func (a *App) Buy(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("buy <id>")
	}
	if !a.store.RequireAuth(ctx, "/dashboard") {
		return nil
	}

	a.mu.Lock()
	c, ok := a.listing[args[0]]
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", errNotListed, args[0])
	}
	if err := a.market.CanAfford(ctx, c.Price); err != nil {
		return err
	}

	d := confirm.Request("Confirm Purchase",
		fmt.Sprintf("Are you sure you want to buy %q for %d coins?", c.Description, c.Price),
		func(ctx context.Context) error {
			_, err := a.market.BuyCoupon(ctx, c.ID, c.Price)
			return err
		})

	ok, err := a.decide(ctx, d)
	if err != nil {
		return err
	}
	if !ok {
		a.printer.Info("Purchase cancelled")
		return nil
	}

	a.printer.Success("Coupon purchased successfully! Check your vault.")
	if sess, err := a.store.Get(ctx); err == nil && sess != nil {
		a.printer.Info("Balance: %d coins", sess.Coins)
	}
	return nil
}

// Upload submits a coupon for review.
func (a *App) Upload(ctx context.Context) error {
	if !a.store.RequireAuth(ctx, "/upload-coupon") {
		return nil
	}

	var (
		form services.CouponForm
		err  error
	)
	if form.Category, err = a.prompt("Category"); err != nil {
		return err
	}
	if form.Code, err = a.prompt("Coupon code"); err != nil {
		return err
	}
	if form.Description, err = getMultiline(a.reader, "Description", a.printer.Writer()); err != nil {
		return err
	}
	price, err := a.prompt(fmt.Sprintf("Price (%d-%d coins)", services.MinCouponPrice, services.MaxCouponPrice))
	if err != nil {
		return err
	}
	// an unparsable price stays zero and fails the range check
	form.Price, _ = strconv.Atoi(price)

	if _, err := a.market.UploadCoupon(ctx, form); err != nil {
		return err
	}
	a.printer.Success("Coupon submitted for review! Admin will verify it soon.")
	return nil
}

// Vault lists purchased coupons with their codes.
func (a *App) Vault(ctx context.Context) error {
	if !a.store.RequireAuth(ctx, "/vault") {
		return nil
	}

	res, err := a.market.Vault(ctx)
	if err != nil {
		return err
	}
	var coupons []coupon
	_ = res.Decode("coupons", &coupons)
	if len(coupons) == 0 {
		a.printer.Info("Your vault is empty")
		return nil
	}

	t := output.NewTable(a.printer.Writer(), "Category", "Description", "Code")
	for _, c := range coupons {
		t.AddRow(c.Category, c.Description, c.Code)
	}
	return t.Render()
}

// Wallet shows the balance and a page of transactions.
func (a *App) Wallet(ctx context.Context, args []string) error {
	if !a.store.RequireAuth(ctx, "/wallet") {
		return nil
	}
	page, err := pageArg(args, "wallet")
	if err != nil {
		return err
	}

	res, err := a.market.Wallet(ctx, page, "")
	if err != nil {
		return err
	}

	var balance int64
	if err := res.Decode("balance", &balance); err == nil {
		a.printer.Header(fmt.Sprintf("Balance: %d coins", balance))
	}
	var txs []transaction
	_ = res.Decode("transactions", &txs)
	if len(txs) == 0 {
		a.printer.Info("No transactions yet")
		return nil
	}

	t := output.NewTable(a.printer.Writer(), "Date", "Type", "Description", "Amount", "Balance")
	for _, tx := range txs {
		t.AddRow(tx.CreatedAt, tx.Type, tx.Description, signed(tx.Amount), strconv.FormatInt(tx.Balance, 10))
	}
	return t.Render()
}

func signed(n int64) string {
	s := strconv.FormatInt(n, 10)
	if n > 0 {
		s = "+" + s
	}
	return s
}

// MyCoupons lists the user's uploads, optionally filtered by status.
func (a *App) MyCoupons(ctx context.Context, args []string) error {
	if !a.store.RequireAuth(ctx, "/my-coupons") {
		return nil
	}
	status := ""
	if len(args) > 0 {
		status = args[0]
	}

	res, err := a.market.MyCoupons(ctx, status)
	if err != nil {
		return err
	}
	var coupons []coupon
	_ = res.Decode("coupons", &coupons)
	if len(coupons) == 0 {
		if status == "" || status == "all" {
			a.printer.Info("You haven't uploaded any coupons yet.")
		} else {
			a.printer.Info("No coupons with this status.")
		}
		return nil
	}

	t := output.NewTable(a.printer.Writer(), "Category", "Description", "Code", "Price", "Status", "Date")
	for _, c := range coupons {
		code := c.Code
		if c.Status == "sold" {
			code = "••••••••"
		}
		t.AddRow(c.Category, c.Description, code, strconv.FormatInt(c.Price, 10), c.Status, c.CreatedAt)
	}
	return t.Render()
}

// Referral shows the user's referral code and who signed up with it.
func (a *App) Referral(ctx context.Context) error {
	if !a.store.RequireAuth(ctx, "/referral") {
		return nil
	}

	res, err := a.market.ReferralInfo(ctx)
	if err != nil {
		return err
	}
	var (
		code          string
		total, earned int64
		referred      []struct {
			Username  string `json:"username"`
			CreatedAt string `json:"createdAt"`
		}
	)
	_ = res.Decode("referralCode", &code)
	_ = res.Decode("totalReferrals", &total)
	_ = res.Decode("totalEarned", &earned)
	_ = res.Decode("referredUsers", &referred)

	a.printer.Header("Referral code: " + code)
	a.printer.Info("Referrals: %d, earned: %d coins", total, earned)
	if len(referred) == 0 {
		a.printer.Info("No referrals yet. Share your code and earn %d coins per signup!", services.ReferralReward)
		return nil
	}

	t := output.NewTable(a.printer.Writer(), "User", "Joined", "Reward")
	for _, u := range referred {
		t.AddRow(u.Username, u.CreatedAt, signed(services.ReferralReward))
	}
	return t.Render()
}

// Categories lists the coupon categories accepted by upload.
func (a *App) Categories(ctx context.Context) error {
	if !a.store.RequireAuth(ctx, "/upload-coupon") {
		return nil
	}

	res, err := a.market.Categories(ctx)
	if err != nil {
		return err
	}
	var cats []category
	_ = res.Decode("categories", &cats)
	if len(cats) == 0 {
		a.printer.Info("No categories created yet.")
		return nil
	}

	t := output.NewTable(a.printer.Writer(), "ID", "Icon", "Name")
	for _, c := range cats {
		icon := c.Icon
		if icon == "" {
			icon = defaultCategoryIcon
		}
		t.AddRow(c.ID, icon, c.Name)
	}
	return t.Render()
}
