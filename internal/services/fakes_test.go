package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"event-registration-platform/internal/models"
)

var errTransient = errors.New("connection reset by peer")

// memStore is an in-memory database whose methods are atomic under one
// mutex, mirroring the conditional updates and unique constraints of the
// SQL repositories.
type memStore struct {
	mu sync.Mutex

	events        map[int]*models.Event
	carts         map[int][]models.CartItem
	orders        map[int]*models.Order
	orderKeys     map[string]int
	payments      map[string]*models.Payment
	registrations map[[2]int]*models.Registration
	outbox        []*models.OutboxMessage

	nextOrderID   int
	nextPaymentID int
	nextRegID     int

	// failures to inject before the next call succeeds
	confirmFailures  int
	transitionErrors int
	// writes that commit but report errTransient to the caller
	lostTransitionAcks int
	createOrderDelay time.Duration
}

func newMemStore() *memStore {
	return &memStore{
		events:        make(map[int]*models.Event),
		carts:         make(map[int][]models.CartItem),
		orders:        make(map[int]*models.Order),
		orderKeys:     make(map[string]int),
		payments:      make(map[string]*models.Payment),
		registrations: make(map[[2]int]*models.Registration),
	}
}

func (s *memStore) addEvent(id, price int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[id] = &models.Event{ID: id, Title: fmt.Sprintf("Event %d", id), Price: price, Status: models.StatusPublished}
}

func (s *memStore) setPrice(id, price int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[id].Price = price
}

func (s *memStore) participants(id int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[id].ParticipantCount
}

func (s *memStore) confirmedRegistrations(userID, eventID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reg, ok := s.registrations[[2]int{userID, eventID}]; ok && reg.Status == models.RegistrationConfirmed {
		return 1
	}
	return 0
}

func (s *memStore) registrationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.registrations)
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) addPayment(p *models.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPaymentID++
	p.ID = s.nextPaymentID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.payments[p.MerchantTransactionID] = clonePayment(p)
}

func (s *memStore) paymentStatus(mtid string) models.PaymentStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payments[mtid].Status
}

func (s *memStore) orderStatus(id int) models.OrderStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id].Status
}

// putOrder stores an order directly, bypassing the cart
func (s *memStore) putOrder(userID int, status models.OrderStatus, items ...models.OrderItem) *models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextOrderID++
	order := &models.Order{
		ID:             s.nextOrderID,
		UserID:         userID,
		OrderNumber:    models.GenerateOrderNumber(),
		IdempotencyKey: fmt.Sprintf("seed-%d", s.nextOrderID),
		Items:          items,
		Status:         status,
		CreatedAt:      time.Now(),
	}
	order.TotalAmount = order.SnapshotTotal()
	s.orders[order.ID] = order
	s.orderKeys[fmt.Sprintf("%d|%s", userID, order.IdempotencyKey)] = order.ID
	return order
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	return &c
}

func clonePayment(p *models.Payment) *models.Payment {
	c := *p
	return &c
}

// memEvents implements EventCatalog
type memEvents struct{ *memStore }

func (m memEvents) GetByID(ctx context.Context, id int) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, models.NewNotFound("event", fmt.Sprint(id))
	}
	c := *e
	return &c, nil
}

func (m memEvents) GetPrices(ctx context.Context, ids []int) (map[int]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prices := make(map[int]int)
	for _, id := range ids {
		if e, ok := m.events[id]; ok {
			prices[id] = e.Price
		}
	}
	return prices, nil
}

// memCarts implements CartRepository
type memCarts struct{ *memStore }

func (m memCarts) AddItem(ctx context.Context, userID, eventID int) (*models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.carts[userID] {
		if item.EventID == eventID {
			return nil, models.NewConflict("event %d is already in the cart", eventID)
		}
	}
	item := models.CartItem{EventID: eventID, AddedAt: time.Now()}
	m.carts[userID] = append(m.carts[userID], item)
	return &item, nil
}

func (m memCarts) RemoveItem(ctx context.Context, userID, eventID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.carts[userID][:0:0]
	for _, item := range m.carts[userID] {
		if item.EventID != eventID {
			items = append(items, item)
		}
	}
	m.carts[userID] = items
	return nil
}

func (m memCarts) Clear(ctx context.Context, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}

func (m memCarts) GetByUser(ctx context.Context, userID int) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &models.Cart{UserID: userID, Items: append([]models.CartItem{}, m.carts[userID]...)}, nil
}

// memOrders implements OrderRepository
type memOrders struct{ *memStore }

func (m memOrders) CreateFromCart(ctx context.Context, userID int, key string) (*models.Order, bool, error) {
	if m.createOrderDelay > 0 {
		time.Sleep(m.createOrderDelay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.orderKeys[fmt.Sprintf("%d|%s", userID, key)]; ok {
		return cloneOrder(m.orders[id]), false, nil
	}

	cart := m.carts[userID]
	if len(cart) == 0 {
		return nil, false, models.ErrEmptyCart
	}

	items := make([]models.OrderItem, 0, len(cart))
	for _, c := range cart {
		e, ok := m.events[c.EventID]
		if !ok {
			return nil, false, models.NewNotFound("event", fmt.Sprint(c.EventID))
		}
		items = append(items, models.OrderItem{EventID: c.EventID, AmountSnapshot: e.Price})
	}

	order, err := models.NewOrder(userID, key, items)
	if err != nil {
		return nil, false, err
	}
	m.nextOrderID++
	order.ID = m.nextOrderID
	m.orders[order.ID] = order
	m.orderKeys[fmt.Sprintf("%d|%s", userID, key)] = order.ID
	delete(m.carts, userID)

	return cloneOrder(order), true, nil
}

func (m memOrders) GetByID(ctx context.Context, id int) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, models.NewNotFound("order", fmt.Sprint(id))
	}
	return cloneOrder(o), nil
}

func (m memOrders) GetByIdempotencyKey(ctx context.Context, userID int, key string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.orderKeys[fmt.Sprintf("%d|%s", userID, key)]
	if !ok {
		return nil, models.NewNotFound("order with idempotency key", key)
	}
	return cloneOrder(m.orders[id]), nil
}

func (m memOrders) LatestByUserSince(ctx context.Context, userID int, since time.Time) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.Order
	for _, o := range m.orders {
		if o.UserID != userID || o.CreatedAt.Before(since) || o.Status != models.OrderCreated {
			continue
		}
		if latest == nil || o.ID > latest.ID {
			latest = o
		}
	}
	if latest == nil {
		return nil, models.NewNotFound("recent order for user", fmt.Sprint(userID))
	}
	return cloneOrder(latest), nil
}

func (m memOrders) Cancel(ctx context.Context, id int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Status != models.OrderCreated {
		return false, nil
	}
	o.Status = models.OrderCancelled
	return true, nil
}

// memPayments implements PaymentRepository
type memPayments struct{ *memStore }

func (m memPayments) Create(ctx context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[p.MerchantTransactionID]; ok {
		return models.NewConflict("merchant transaction id %s already used", p.MerchantTransactionID)
	}
	m.nextPaymentID++
	p.ID = m.nextPaymentID
	p.Status = models.PaymentPending
	p.CreatedAt = time.Now()
	m.payments[p.MerchantTransactionID] = clonePayment(p)
	return nil
}

func (m memPayments) GetByMerchantTxnID(ctx context.Context, mtid string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[mtid]
	if !ok {
		return nil, models.NewNotFound("payment", mtid)
	}
	return clonePayment(p), nil
}

func (m memPayments) Transition(ctx context.Context, mtid string, from, to models.PaymentStatus, gatewayTxnID string, raw []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transitionErrors > 0 {
		m.transitionErrors--
		return false, errTransient
	}
	p, ok := m.payments[mtid]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	if gatewayTxnID != "" {
		id := gatewayTxnID
		p.GatewayTransactionID = &id
	}
	if raw != nil {
		p.RawResponse = raw
	}
	if m.lostTransitionAcks > 0 {
		m.lostTransitionAcks--
		return false, errTransient
	}
	return true, nil
}

func (m memPayments) ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*models.Payment, error) {
	return m.filter(limit, func(p *models.Payment) bool {
		return p.Status == models.PaymentPending && p.CreatedAt.Before(createdBefore)
	}), nil
}

func (m memPayments) ListUnreconciled(ctx context.Context, limit int) ([]*models.Payment, error) {
	return m.filter(limit, func(p *models.Payment) bool {
		o, ok := m.orders[p.OrderID]
		return p.Status == models.PaymentSuccess && ok && o.Status == models.OrderCreated
	}), nil
}

func (m memPayments) ListUnsettledRefunds(ctx context.Context, limit int) ([]*models.Payment, error) {
	return m.filter(limit, func(p *models.Payment) bool {
		o, ok := m.orders[p.OrderID]
		return p.Status == models.PaymentRefunded && ok && o.Status == models.OrderConfirmed
	}), nil
}

func (m memPayments) filter(limit int, keep func(*models.Payment) bool) []*models.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Payment
	for _, p := range m.payments {
		if keep(p) {
			out = append(out, clonePayment(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// memRegistrations implements RegistrationRepository
type memRegistrations struct{ *memStore }

func (m memRegistrations) ConfirmForPayment(ctx context.Context, payment *models.Payment) (*models.ReconcileResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.confirmFailures > 0 {
		m.confirmFailures--
		return nil, errTransient
	}

	order, ok := m.orders[payment.OrderID]
	if !ok {
		return nil, models.NewNotFound("order", fmt.Sprint(payment.OrderID))
	}

	result := &models.ReconcileResult{PaymentID: payment.ID, OrderID: order.ID}
	for _, item := range order.Items {
		key := [2]int{payment.UserID, item.EventID}
		reg, exists := m.registrations[key]
		if exists && reg.Status == models.RegistrationConfirmed {
			result.AlreadyPresent++
			continue
		}
		if !exists {
			m.nextRegID++
			reg = &models.Registration{ID: m.nextRegID, UserID: payment.UserID, EventID: item.EventID}
			m.registrations[key] = reg
		}
		reg.PaymentID = payment.ID
		reg.Status = models.RegistrationConfirmed
		m.events[item.EventID].ParticipantCount++

		msg, err := models.NewRegistrationMessage(models.EventRegistrationConfirmed, reg, order.ID)
		if err != nil {
			return nil, err
		}
		m.outbox = append(m.outbox, msg)
		result.Confirmed = append(result.Confirmed, reg.ID)
	}

	if order.Status == models.OrderCreated {
		order.Status = models.OrderConfirmed
		result.OrderConfirmed = true
	}
	return result, nil
}

func (m memRegistrations) CancelForPayment(ctx context.Context, payment *models.Payment) (*models.RefundResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := &models.RefundResult{PaymentID: payment.ID, OrderID: payment.OrderID}
	for _, reg := range m.registrations {
		if reg.PaymentID != payment.ID || reg.Status != models.RegistrationConfirmed {
			continue
		}
		reg.Status = models.RegistrationCancelled
		if m.events[reg.EventID].ParticipantCount > 0 {
			m.events[reg.EventID].ParticipantCount--
		}
		result.Cancelled = append(result.Cancelled, reg.ID)
	}

	if o, ok := m.orders[payment.OrderID]; ok && o.Status == models.OrderConfirmed {
		o.Status = models.OrderRefunded
		result.OrderRefunded = true
	}
	return result, nil
}

func (m memRegistrations) ListByPayment(ctx context.Context, paymentID int) ([]*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Registration
	for _, reg := range m.registrations {
		if reg.PaymentID == paymentID {
			c := *reg
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// memDedup is a DedupWindow over a map
type memDedup struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemDedup() *memDedup {
	return &memDedup{keys: make(map[string]string)}
}

func (d *memDedup) Resolve(ctx context.Context, userID int, fingerprint, candidate string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	k := dedupKey(userID, fingerprint)
	if existing, ok := d.keys[k]; ok {
		return existing, nil
	}
	d.keys[k] = candidate
	return candidate, nil
}
