// Package cart holds the client-side pricing session: the live cart, the at
// most one applied coupon verdict, and the revalidation that keeps them
// consistent as the cart changes.
package cart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/storefront-pricing/internal/model"
)

// DefaultVerifyTimeout bounds one verification round trip.
const DefaultVerifyTimeout = 10 * time.Second

var (
	// ErrItemNotFound is returned when a mutation names a line the cart does not hold.
	ErrItemNotFound = errors.New("cart item not found")

	// ErrEmptyCart is returned by ApplyCode when no available line can be priced.
	ErrEmptyCart = errors.New("cart is empty")
)

// Verifier runs the coupon verification protocol. Both the in-process
// pricing service and the HTTP client satisfy it.
type Verifier interface {
	Verify(ctx context.Context, req *model.VerifyCouponRequest) (*model.Verdict, error)
}

// Catalog returns fresh product snapshots. Unknown ids are omitted.
type Catalog interface {
	Lookup(ctx context.Context, ids []string) ([]model.ProductSnapshot, error)
}

// Item is one cart line. ID is the identifier the cart sends to the service.
type Item struct {
	ID         string
	InternalID string
	Name       string
	UnitPrice  decimal.Decimal
	Quantity   int
	Category   string
	Brand      string
	Stock      int
	// Unavailable marks a line whose product vanished from the catalog on the
	// last refresh. Such lines are kept for display but never priced.
	Unavailable bool
}

// ItemFromSnapshot builds a cart line from a catalog snapshot.
func ItemFromSnapshot(p model.ProductSnapshot, quantity int) Item {
	item := Item{ID: normalizeID(p.ID), Quantity: quantity}
	item.apply(p)
	return item
}

func (it *Item) apply(p model.ProductSnapshot) {
	it.InternalID = p.InternalID
	it.Name = p.Name
	it.UnitPrice = decimal.NewFromFloat(p.Price)
	it.Category = p.Category
	it.Brand = p.Brand
	it.Stock = p.Stock
	it.Unavailable = false
}

// LineTotal returns unit price times quantity.
func (it Item) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Session is a cart with at most one applied coupon.
//
// Every state change bumps a sequence number. A revalidation started for one
// sequence is discarded if the cart or coupon changed before it returned, so a
// slow response can never reinstate or drop a coupon for a cart that no
// longer exists.
type Session struct {
	verifier Verifier
	catalog  Catalog
	timeout  time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	items   []Item
	applied *model.Verdict
	seq     uint64

	inflight sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithTimeout sets the verification timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// New creates an empty session. catalog may be nil if Refresh is never called.
func New(verifier Verifier, catalog Catalog, opts ...Option) *Session {
	s := &Session{
		verifier: verifier,
		catalog:  catalog,
		timeout:  DefaultVerifyTimeout,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddItem adds a line, or increases the quantity of the line with the same id.
// Surrounding whitespace in the id is dropped.
func (s *Session) AddItem(item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item.ID = normalizeID(item.ID)
	if i := s.indexLocked(item.ID); i >= 0 {
		s.items[i].Quantity += item.Quantity
	} else {
		s.items = append(s.items, item)
	}
	s.mutatedLocked()
}

// UpdateQuantity sets the quantity of a line. A quantity below 1 removes it.
func (s *Session) UpdateQuantity(id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return ErrItemNotFound
	}
	if quantity < 1 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	} else {
		s.items[i].Quantity = quantity
	}
	s.mutatedLocked()
	return nil
}

// RemoveItem removes a line.
func (s *Session) RemoveItem(id string) error {
	return s.UpdateQuantity(id, 0)
}

// Apply stores v as the applied coupon, replacing any previous one.
// Pending revalidations of the previous state are discarded.
func (s *Session) Apply(v *model.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.applied = cloneVerdict(v)
}

// ApplyCode verifies code against the current cart and applies the verdict.
// On failure the error is returned for display and the session is unchanged.
func (s *Session) ApplyCode(ctx context.Context, code string) (*model.Verdict, error) {
	s.mu.Lock()
	req, ok := s.requestLocked(code)
	started := s.seq
	s.mu.Unlock()
	if !ok {
		return nil, ErrEmptyCart
	}

	v, err := s.verify(ctx, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.applied = cloneVerdict(v)
	if started+1 != s.seq {
		// The cart changed while the code was being checked.
		s.revalidateLocked()
	}
	return cloneVerdict(v), nil
}

// RemoveCoupon clears the applied coupon. Cart lines are untouched.
func (s *Session) RemoveCoupon() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.applied = nil
}

// AppliedCoupon returns a copy of the applied verdict, or nil.
func (s *Session) AppliedCoupon() *model.Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneVerdict(s.applied)
}

// Items returns a copy of the cart lines.
func (s *Session) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item(nil), s.items...)
}

// Subtotal is the sum of price times quantity over available lines.
func (s *Session) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return subtotal(s.items)
}

// Discount is the applied discount amount, or zero.
func (s *Session) Discount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applied == nil {
		return decimal.Zero
	}
	return s.applied.DiscountAmount
}

// Total is max(0, subtotal - discount).
func (s *Session) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := subtotal(s.items)
	if s.applied != nil {
		total = total.Sub(s.applied.DiscountAmount)
	}
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// Lines returns the per-line display prices under the applied coupon.
func (s *Session) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return PriceLines(s.items, s.applied)
}

// Refresh re-fetches price, stock, category and brand for every line from the
// catalog, keeping quantities. Lines whose product is gone are marked
// unavailable. Lines added while the lookup runs are left as they are. An
// applied coupon is revalidated against the refreshed cart.
func (s *Session) Refresh(ctx context.Context) error {
	if s.catalog == nil {
		return errors.New("refresh cart: no catalog configured")
	}

	s.mu.Lock()
	ids := make([]string, 0, len(s.items))
	for _, it := range s.items {
		ids = append(ids, it.ID)
	}
	s.mu.Unlock()
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	snapshots, err := s.catalog.Lookup(ctx, ids)
	if err != nil {
		return err
	}
	requested := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		requested[id] = struct{}{}
	}
	byID := make(map[string]model.ProductSnapshot, len(snapshots))
	for _, p := range snapshots {
		byID[normalizeID(p.ID)] = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		id := s.items[i].ID
		if _, ok := requested[id]; !ok {
			continue
		}
		if p, ok := byID[id]; ok {
			s.items[i].apply(p)
		} else {
			s.items[i].Unavailable = true
		}
	}
	s.mutatedLocked()
	return nil
}

// Wait blocks until every revalidation started so far has settled.
func (s *Session) Wait() {
	s.inflight.Wait()
}

func (s *Session) indexLocked(id string) int {
	id = normalizeID(id)
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// mutatedLocked records a cart change and revalidates an applied coupon.
func (s *Session) mutatedLocked() {
	s.seq++
	if s.applied != nil {
		s.revalidateLocked()
	}
}

// revalidateLocked re-verifies the applied coupon against the current cart in
// the background. Failures drop the coupon without surfacing an error.
func (s *Session) revalidateLocked() {
	code := s.applied.Code
	req, ok := s.requestLocked(code)
	if !ok {
		s.dropLocked(code, ErrEmptyCart)
		return
	}

	seq := s.seq
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		v, err := s.verify(context.Background(), req)

		s.mu.Lock()
		defer s.mu.Unlock()
		if seq != s.seq {
			s.logger.Debug().
				Str("coupon_code", code).
				Uint64("sequence", seq).
				Uint64("current", s.seq).
				Msg("discarding stale revalidation")
			return
		}
		if err != nil {
			s.dropLocked(code, err)
			return
		}
		s.applied = cloneVerdict(v)
	}()
}

func (s *Session) dropLocked(code string, cause error) {
	s.seq++
	s.applied = nil
	s.logger.Debug().Err(cause).Str("coupon_code", code).Msg("coupon dropped after cart change")
}

// verify calls the verifier under the session timeout.
func (s *Session) verify(ctx context.Context, req *model.VerifyCouponRequest) (*model.Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		v   *model.Verdict
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := s.verifier.Verify(ctx, req)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		if r.err == nil && r.v == nil {
			return nil, errors.New("verify coupon: empty verdict")
		}
		return r.v, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// requestLocked builds the verification request for the available lines.
func (s *Session) requestLocked(code string) (*model.VerifyCouponRequest, bool) {
	req := &model.VerifyCouponRequest{
		Code:      strings.TrimSpace(code),
		CartTotal: subtotal(s.items).InexactFloat64(),
	}
	for _, it := range s.items {
		if it.Unavailable || it.Quantity < 1 {
			continue
		}
		price := it.UnitPrice.InexactFloat64()
		req.CartItems = append(req.CartItems, model.CartItem{
			ID:       it.ID,
			Quantity: it.Quantity,
			Category: it.Category,
			Brand:    it.Brand,
			Price:    &price,
		})
	}
	return req, len(req.CartItems) > 0
}

// normalizeID trims a line id the same way the pricing service does before
// echoing it back in eligible ids.
func normalizeID(id string) string {
	return strings.TrimSpace(id)
}

func subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		if it.Unavailable {
			continue
		}
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

func cloneVerdict(v *model.Verdict) *model.Verdict {
	if v == nil {
		return nil
	}
	c := *v
	c.EligibleItemIDs = append([]string(nil), v.EligibleItemIDs...)
	return &c
}
