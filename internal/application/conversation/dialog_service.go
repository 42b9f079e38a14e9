package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	domconv "github.com/storefront/backend/internal/domain/conversation"
	"github.com/storefront/backend/internal/domain/partner"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/trade"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

const (
	// pageSize is how many products one list message shows
	pageSize = 5
	// maxQuantity caps a single line item; larger asks are almost always typos
	maxQuantity = 9999
	// orderNumberRetries bounds retries on an order number collision
	orderNumberRetries = 3
)

// Keyword sets for the three supported languages. Matching is on the
// lowercased, trimmed message.
var (
	greetingWords = wordSet("hi", "hello", "hey", "bonjour", "bonsoir", "salut", "مرحبا", "اهلا", "هلا")
	yesWords      = wordSet("yes", "y", "ok", "okay", "oui", "نعم", "اي", "ايه", "أجل")
	noWords       = wordSet("no", "n", "non", "لا", "كلا")
	cancelWords   = wordSet("cancel", "annuler", "الغاء", "إلغاء", "الغي")
	nextWords     = wordSet("next", "more", "suivant", "suite", "التالي", "المزيد")
	skipWords     = wordSet("skip", "passer", "تخطي")
	statusWords   = wordSet("status", "statut", "حالة", "الحالة")
)

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func matches(set map[string]struct{}, lower string) bool {
	_, ok := set[lower]
	return ok
}

// DialogService is the conversational state machine behind the WhatsApp
// webhook. Each Handle call consumes one inbound message, advances the
// customer's persisted state by at most one step and produces one reply.
type DialogService struct {
	identity  *IdentityService
	states    *StateService
	products  catalog.ProductRepository
	orders    trade.OrderRepository
	customers partner.CustomerRepository
	renderer  Renderer
	now       func() time.Time
}

// NewDialogService creates a new DialogService
func NewDialogService(
	identity *IdentityService,
	states *StateService,
	products catalog.ProductRepository,
	orders trade.OrderRepository,
	customers partner.CustomerRepository,
) *DialogService {
	return &DialogService{
		identity:  identity,
		states:    states,
		products:  products,
		orders:    orders,
		customers: customers,
		now:       time.Now,
	}
}

// Handle processes one inbound WhatsApp message end to end: resolve the
// sender to a customer, load the conversation state, run one transition and
// persist the outcome. Invalid input re-prompts without advancing the step.
// An error return means an internal fault; the state is left as it was so
// the customer can retry the same message.
func (s *DialogService) Handle(ctx context.Context, msg IncomingMessage) (*Reply, error) {
	customer, err := s.identity.Resolve(ctx, msg.PhoneRaw)
	if err != nil {
		return nil, err
	}
	ctx, _ = logger.WithCustomerID(ctx, logger.FromContext(ctx), customer.ID.String())

	lang := DetectLanguage(msg.Text)
	text := strings.TrimSpace(msg.Text)
	lower := strings.ToLower(text)

	state, err := s.states.Get(ctx, customer.ID)
	if err != nil {
		return nil, err
	}

	reply := func(kind MessageKind, args ...any) *Reply {
		return &Reply{
			CustomerID: customer.ID,
			Text:       s.renderer.Render(kind, lang, args...),
			Language:   lang,
		}
	}

	// Cancel is honored from every step. Mid-flow it abandons the checkout;
	// at idle it starts cancellation of the latest order.
	if matches(cancelWords, lower) {
		if state.Step != domconv.StepIdle {
			if err := s.states.Clear(ctx, customer.ID); err != nil {
				return nil, err
			}
			return reply(MsgFlowCancelled), nil
		}
		return s.startOrderCancel(ctx, customer, state, reply)
	}

	switch state.Step {
	case domconv.StepIdle:
		if text == "" {
			return reply(MsgGreeting), nil
		}
		if matches(greetingWords, lower) {
			return reply(MsgGreeting), nil
		}
		if matches(statusWords, lower) {
			return s.reportLatestOrder(ctx, customer, reply)
		}
		return s.search(ctx, state, text, 0, true, reply)

	case domconv.StepBrowsingProducts, domconv.StepAwaitingProductSelection:
		query := state.Data[domconv.DataKeyQuery]
		page := dataInt(state.Data, domconv.DataKeyPage)
		if matches(nextWords, lower) {
			return s.search(ctx, state, query, page+1, true, reply)
		}
		if n, ok := parseSmallInt(text); ok {
			return s.selectProduct(ctx, state, query, page, n, reply)
		}
		// Anything else starts a fresh search.
		return s.search(ctx, state, text, 0, true, reply)

	case domconv.StepConfirmingProduct:
		switch {
		case matches(yesWords, lower):
			if err := s.states.Set(ctx, state, domconv.StepAwaitingQuantity, nil); err != nil {
				return nil, err
			}
			return reply(MsgAskQuantity), nil
		case matches(noWords, lower):
			// Back to the list they were browsing, not the product they
			// just declined.
			query := state.Data[domconv.DataKeyQuery]
			page := dataInt(state.Data, domconv.DataKeyPage)
			return s.search(ctx, state, query, page, false, reply)
		default:
			// Changed their mind: anything else is a fresh search.
			return s.search(ctx, state, text, 0, true, reply)
		}

	case domconv.StepAwaitingQuantity:
		qty, ok := parseSmallInt(text)
		if !ok || qty <= 0 || qty > maxQuantity {
			return reply(MsgInvalidQuantity), nil
		}
		next, prompt := s.nextCheckoutStep(customer, domconv.Data{
			domconv.DataKeyQuantity: strconv.Itoa(qty),
		}, state)
		if err := s.states.Set(ctx, state, next, domconv.Data{domconv.DataKeyQuantity: strconv.Itoa(qty)}); err != nil {
			return nil, err
		}
		return s.checkoutPrompt(next, prompt, customer, state, reply), nil

	case domconv.StepAwaitingName:
		if text == "" {
			return reply(MsgDidNotUnderstand), nil
		}
		next, prompt := s.nextCheckoutStep(customer, domconv.Data{domconv.DataKeyName: text}, state)
		if err := s.states.Set(ctx, state, next, domconv.Data{domconv.DataKeyName: text}); err != nil {
			return nil, err
		}
		return s.checkoutPrompt(next, prompt, customer, state, reply), nil

	case domconv.StepAwaitingEmail:
		email := text
		if matches(skipWords, lower) {
			email = ""
		} else if !partner.ValidEmail(email) {
			return reply(MsgInvalidEmail), nil
		}
		next, prompt := s.nextCheckoutStep(customer, domconv.Data{domconv.DataKeyEmail: email}, state)
		if err := s.states.Set(ctx, state, next, domconv.Data{domconv.DataKeyEmail: email}); err != nil {
			return nil, err
		}
		return s.checkoutPrompt(next, prompt, customer, state, reply), nil

	case domconv.StepAwaitingAddress:
		if text == "" {
			return reply(MsgDidNotUnderstand), nil
		}
		next, prompt := s.nextCheckoutStep(customer, domconv.Data{domconv.DataKeyAddress: text}, state)
		if err := s.states.Set(ctx, state, next, domconv.Data{domconv.DataKeyAddress: text}); err != nil {
			return nil, err
		}
		return s.checkoutPrompt(next, prompt, customer, state, reply), nil

	case domconv.StepConfirmingOrder:
		switch {
		case matches(yesWords, lower):
			order, err := s.placeOrder(ctx, customer, state)
			if err != nil {
				// State survives so the customer can send yes again.
				return nil, err
			}
			if err := s.states.Clear(ctx, customer.ID); err != nil {
				logger.L(ctx).Warn("failed to clear state after order", zap.Error(err))
			}
			return reply(MsgOrderConfirmed, order.OrderNumber), nil
		case matches(noWords, lower):
			if err := s.states.Clear(ctx, customer.ID); err != nil {
				return nil, err
			}
			return reply(MsgFlowCancelled), nil
		default:
			return reply(MsgDidNotUnderstand), nil
		}

	case domconv.StepAwaitingOrderCancel:
		switch {
		case matches(yesWords, lower):
			return s.cancelOrder(ctx, customer, state, reply)
		case matches(noWords, lower):
			if err := s.states.Clear(ctx, customer.ID); err != nil {
				return nil, err
			}
			return reply(MsgFlowCancelled), nil
		default:
			return reply(MsgDidNotUnderstand), nil
		}
	}

	// Unknown step in storage; reset rather than trap the customer.
	logger.L(ctx).Warn("unknown conversation step, resetting", zap.String("step", string(state.Step)))
	if err := s.states.Clear(ctx, customer.ID); err != nil {
		return nil, err
	}
	return reply(MsgDidNotUnderstand), nil
}

// search runs a catalog search and shows one page of results, jumping
// straight to confirmation when the query names a single product outright.
// An exhausted page wraps back to the first one. jump is off when the
// customer just declined that very product and wants the list instead.
func (s *DialogService) search(ctx context.Context, state *domconv.State, query string, page int, jump bool, reply func(MessageKind, ...any) *Reply) (*Reply, error) {
	if strings.TrimSpace(query) == "" {
		return reply(MsgDidNotUnderstand), nil
	}
	results, err := s.products.Search(ctx, query, pageSize, page*pageSize)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 && page > 0 {
		page = 0
		results, err = s.products.Search(ctx, query, pageSize, 0)
		if err != nil {
			return nil, err
		}
	}
	if len(results) == 0 {
		if err := s.states.Set(ctx, state, domconv.StepIdle, nil); err != nil {
			return nil, err
		}
		return reply(MsgNoResults, query), nil
	}

	// A query that unambiguously names one product skips the list.
	if jump && page == 0 {
		if product, ok := strongMatch(results, query); ok {
			return s.confirmProduct(ctx, state, query, page, product, reply)
		}
	}

	if err := s.states.Set(ctx, state, domconv.StepBrowsingProducts, domconv.Data{
		domconv.DataKeyQuery: query,
		domconv.DataKeyPage:  strconv.Itoa(page),
	}); err != nil {
		return nil, err
	}

	out := reply(MsgProductListHeader)
	var b strings.Builder
	b.WriteString(out.Text)
	for i, p := range results {
		b.WriteString("\n")
		b.WriteString(s.renderer.Render(MsgProductListItem, out.Language, i+1, p.ItemName, p.Price.StringFixed(2)))
	}
	b.WriteString("\n")
	b.WriteString(s.renderer.Render(MsgProductListFooter, out.Language))
	out.Text = b.String()
	return out, nil
}

// selectProduct resolves a 1-based list position against the page the
// customer was shown
func (s *DialogService) selectProduct(ctx context.Context, state *domconv.State, query string, page, position int, reply func(MessageKind, ...any) *Reply) (*Reply, error) {
	results, err := s.products.Search(ctx, query, pageSize, page*pageSize)
	if err != nil {
		return nil, err
	}
	if position < 1 || position > len(results) {
		return reply(MsgInvalidSelection), nil
	}
	return s.confirmProduct(ctx, state, query, page, &results[position-1], reply)
}

// confirmProduct moves to product confirmation, keeping the query and page so
// a "no" or a fresh search can return to the listing
func (s *DialogService) confirmProduct(ctx context.Context, state *domconv.State, query string, page int, product *catalog.Product, reply func(MessageKind, ...any) *Reply) (*Reply, error) {
	if err := s.states.Set(ctx, state, domconv.StepConfirmingProduct, domconv.Data{
		domconv.DataKeyQuery:       query,
		domconv.DataKeyPage:        strconv.Itoa(page),
		domconv.DataKeyProductCode: product.ItemCode,
		domconv.DataKeyProductName: product.ItemName,
		domconv.DataKeyUnitPrice:   product.Price.String(),
	}); err != nil {
		return nil, err
	}
	return reply(MsgConfirmProduct, product.ItemName, product.Price.StringFixed(2)), nil
}

// strongMatch picks the single product a query names outright: an exact item
// code, or a lone result whose name equals the query.
func strongMatch(results []catalog.Product, query string) (*catalog.Product, bool) {
	for i := range results {
		if results[i].ItemCode == query {
			return &results[i], true
		}
	}
	if len(results) == 1 && strings.EqualFold(results[0].ItemName, query) {
		return &results[0], true
	}
	return nil, false
}

// nextCheckoutStep decides which detail to ask for next, skipping prompts
// for data the customer record or the current turn already carries
func (s *DialogService) nextCheckoutStep(customer *partner.Customer, turn domconv.Data, state *domconv.State) (domconv.Step, MessageKind) {
	has := func(key, existing string) bool {
		if v, ok := turn[key]; ok && v != "" {
			return true
		}
		if v, ok := state.Data[key]; ok && v != "" {
			return true
		}
		return existing != ""
	}
	// Email is special: an explicit empty answer in the turn means skipped.
	emailAnswered := false
	if _, ok := turn[domconv.DataKeyEmail]; ok {
		emailAnswered = true
	} else if _, ok := state.Data[domconv.DataKeyEmail]; ok {
		emailAnswered = true
	}

	switch {
	case !has(domconv.DataKeyName, customer.Name):
		return domconv.StepAwaitingName, MsgAskName
	case !emailAnswered && customer.Email == "":
		return domconv.StepAwaitingEmail, MsgAskEmail
	case !has(domconv.DataKeyAddress, customer.Address):
		return domconv.StepAwaitingAddress, MsgAskAddress
	default:
		return domconv.StepConfirmingOrder, MsgOrderSummary
	}
}

// checkoutPrompt renders the prompt for the step nextCheckoutStep chose.
// The order summary is assembled from the accumulated state, falling back to
// the customer record for details that were skipped because already on file.
func (s *DialogService) checkoutPrompt(step domconv.Step, kind MessageKind, customer *partner.Customer, state *domconv.State, reply func(MessageKind, ...any) *Reply) *Reply {
	if step != domconv.StepConfirmingOrder {
		return reply(kind)
	}
	name := state.Data[domconv.DataKeyProductName]
	qty := state.Data[domconv.DataKeyQuantity]
	address := state.Data[domconv.DataKeyAddress]
	if address == "" {
		address = customer.Address
	}
	total := lineTotal(state.Data)
	return reply(MsgOrderSummary, name, qty, total.StringFixed(2), address)
}

// placeOrder creates the order atomically from the accumulated state and
// persists the checkout details onto the customer record. The conversation
// state is only cleared by the caller after success.
func (s *DialogService) placeOrder(ctx context.Context, customer *partner.Customer, state *domconv.State) (*trade.Order, error) {
	code := state.Data[domconv.DataKeyProductCode]
	name := state.Data[domconv.DataKeyProductName]
	qty := dataInt(state.Data, domconv.DataKeyQuantity)
	price, err := decimal.NewFromString(state.Data[domconv.DataKeyUnitPrice])
	if err != nil {
		return nil, shared.NewDomainError("INVALID_STATE_DATA", fmt.Sprintf("Unparseable unit price in conversation state: %v", err))
	}

	item, err := trade.NewOrderItem(code, name, qty, price)
	if err != nil {
		return nil, err
	}

	var order *trade.Order
	for attempt := 0; attempt < orderNumberRetries; attempt++ {
		number := trade.GenerateOrderNumber(s.now())
		order, err = trade.NewOrder(customer.ID, number, []trade.OrderItem{*item}, "")
		if err != nil {
			return nil, err
		}
		err = s.orders.Create(ctx, order)
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrAlreadyExists) {
			return nil, err
		}
	}
	if err != nil {
		return nil, shared.NewDomainError("ORDER_NUMBER_EXHAUSTED", "Could not allocate a unique order number")
	}

	s.persistCheckoutDetails(ctx, customer, state)

	logger.L(ctx).Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("product_code", code),
		zap.Int("quantity", qty),
		zap.String("total", order.TotalAmount.String()),
	)
	return order, nil
}

// persistCheckoutDetails writes name, email and address gathered during the
// dialog back to the customer record. Failures here are logged, not fatal:
// the order is already placed.
func (s *DialogService) persistCheckoutDetails(ctx context.Context, customer *partner.Customer, state *domconv.State) {
	changed := false
	if v := state.Data[domconv.DataKeyName]; v != "" && v != customer.Name {
		if err := customer.SetName(v); err == nil {
			changed = true
		}
	}
	if v := state.Data[domconv.DataKeyEmail]; v != "" && v != customer.Email {
		if err := customer.SetEmail(v); err == nil {
			changed = true
		}
	}
	if v := state.Data[domconv.DataKeyAddress]; v != "" && v != customer.Address {
		if err := customer.SetAddress(v); err == nil {
			changed = true
		}
	}
	if !changed {
		return
	}
	if err := s.customers.Save(ctx, customer); err != nil {
		logger.L(ctx).Warn("failed to persist checkout details", zap.Error(err))
	}
}

// reportLatestOrder answers a status inquiry with the most recent order
func (s *DialogService) reportLatestOrder(ctx context.Context, customer *partner.Customer, reply func(MessageKind, ...any) *Reply) (*Reply, error) {
	order, err := s.orders.FindLatestByCustomer(ctx, customer.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return reply(MsgNoOrders), nil
		}
		return nil, err
	}
	return reply(MsgOrderStatus, order.OrderNumber, string(order.Status)), nil
}

// startOrderCancel begins cancellation of the latest order, asking for
// confirmation first
func (s *DialogService) startOrderCancel(ctx context.Context, customer *partner.Customer, state *domconv.State, reply func(MessageKind, ...any) *Reply) (*Reply, error) {
	order, err := s.orders.FindLatestByCustomer(ctx, customer.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return reply(MsgNoOrders), nil
		}
		return nil, err
	}
	if order.Status.IsTerminal() {
		return reply(MsgCannotCancel, order.OrderNumber, string(order.Status)), nil
	}
	if err := s.states.Set(ctx, state, domconv.StepAwaitingOrderCancel, domconv.Data{
		domconv.DataKeyOrderID: order.ID.String(),
	}); err != nil {
		return nil, err
	}
	return reply(MsgConfirmCancelOrder, order.OrderNumber), nil
}

// cancelOrder executes a confirmed cancellation
func (s *DialogService) cancelOrder(ctx context.Context, customer *partner.Customer, state *domconv.State, reply func(MessageKind, ...any) *Reply) (*Reply, error) {
	id, err := uuid.Parse(state.Data[domconv.DataKeyOrderID])
	if err != nil {
		return nil, shared.NewDomainError("INVALID_STATE_DATA", "Unparseable order ID in conversation state")
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.states.Clear(ctx, customer.ID); err != nil {
		return nil, err
	}
	if err := order.TransitionTo(trade.OrderStatusCancelled); err != nil {
		// The order moved on while we were asking.
		return reply(MsgCannotCancel, order.OrderNumber, string(order.Status)), nil
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("order cancelled by customer", zap.String("order_number", order.OrderNumber))
	return reply(MsgOrderCancelled, order.OrderNumber), nil
}

// lineTotal computes quantity times unit price from accumulated state data
func lineTotal(data domconv.Data) decimal.Decimal {
	price, err := decimal.NewFromString(data[domconv.DataKeyUnitPrice])
	if err != nil {
		return decimal.Zero
	}
	return price.Mul(decimal.NewFromInt(int64(dataInt(data, domconv.DataKeyQuantity))))
}

// dataInt reads an integer state value, zero when absent or malformed
func dataInt(data domconv.Data, key string) int {
	n, err := strconv.Atoi(data[key])
	if err != nil {
		return 0
	}
	return n
}

// parseSmallInt parses a short numeric message, accepting Arabic-Indic
// digits alongside ASCII
func parseSmallInt(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > 6 {
		return 0, false
	}
	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= '٠' && r <= '٩':
			b.WriteRune('0' + (r - '٠'))
		default:
			return 0, false
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0, false
	}
	return n, true
}
