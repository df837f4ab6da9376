package app

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/onlinestore/shopping-service/internal/shopping/domain"
)

type manageCartCall struct {
	customerID string
	product    domain.Product
	qty        int
	remove     bool
}

type updateStatusCall struct {
	orderID    string
	customerID string
	status     domain.OrderStatus
}

type fakeRepo struct {
	cart     domain.Cart
	wishlist domain.Wishlist
	order    domain.Order
	orders   []domain.Order
	err      error

	manageCartCalls     []manageCartCall
	manageWishlistCalls []struct {
		customerID, productID string
		remove                bool
	}
	updateStatusCalls []updateStatusCall
	createOrderCalls  []struct{ customerID, transactionID string }
}

func (f *fakeRepo) ManageCart(_ context.Context, customerID string, product domain.Product, qty int, remove bool) (domain.Cart, error) {
	f.manageCartCalls = append(f.manageCartCalls, manageCartCall{customerID, product, qty, remove})
	return f.cart, f.err
}

func (f *fakeRepo) Cart(_ context.Context, customerID string) (domain.Cart, error) {
	return f.cart, f.err
}

func (f *fakeRepo) ManageWishlist(_ context.Context, customerID, productID string, remove bool) (domain.Wishlist, error) {
	f.manageWishlistCalls = append(f.manageWishlistCalls, struct {
		customerID, productID string
		remove                bool
	}{customerID, productID, remove})
	return f.wishlist, f.err
}

func (f *fakeRepo) WishlistByCustomerID(_ context.Context, customerID string) (domain.Wishlist, error) {
	return f.wishlist, f.err
}

func (f *fakeRepo) CreateNewOrder(_ context.Context, customerID, transactionID string) (domain.Order, error) {
	f.createOrderCalls = append(f.createOrderCalls, struct{ customerID, transactionID string }{customerID, transactionID})
	return f.order, f.err
}

func (f *fakeRepo) Order(_ context.Context, customerID, orderID string) (domain.Order, error) {
	return f.order, f.err
}

func (f *fakeRepo) Orders(_ context.Context, customerID string) ([]domain.Order, error) {
	return f.orders, f.err
}

func (f *fakeRepo) AllOrders(_ context.Context) ([]domain.Order, error) {
	return f.orders, f.err
}

func (f *fakeRepo) UpdateOrderStatus(_ context.Context, orderID, customerID string, status domain.OrderStatus) (domain.Order, error) {
	f.updateStatusCalls = append(f.updateStatusCalls, updateStatusCall{orderID, customerID, status})
	order := f.order
	order.Status = status
	return order, f.err
}

type fakeResolver struct {
	product    domain.Product
	products   []domain.Product
	err        error
	singleIDs  []string
	batchCalls [][]string
}

func (f *fakeResolver) Resolve(_ context.Context, productID string) (domain.Product, error) {
	f.singleIDs = append(f.singleIDs, productID)
	return f.product, f.err
}

func (f *fakeResolver) ResolveBatch(_ context.Context, productIDs []string) ([]domain.Product, error) {
	f.batchCalls = append(f.batchCalls, productIDs)
	return f.products, f.err
}

type fakeNotifier struct {
	events []domain.Event
}

func (f *fakeNotifier) Emit(_ context.Context, event domain.Event) {
	f.events = append(f.events, event)
}

func TestAddCartItem(t *testing.T) {
	widget := domain.Product{ID: "p1", Name: "Widget", Price: 10}

	t.Run("forwards resolved snapshot and quantity verbatim", func(t *testing.T) {
		repo := &fakeRepo{cart: domain.Cart{
			CustomerID: "c1",
			Items:      []domain.CartItem{{Product: widget, Quantity: 3}},
		}}
		resolver := &fakeResolver{product: widget}
		svc := NewService(repo, resolver, &fakeNotifier{})

		cart, err := svc.AddCartItem(context.Background(), "c1", "p1", 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := manageCartCall{customerID: "c1", product: widget, qty: 3, remove: false}
		if len(repo.manageCartCalls) != 1 || repo.manageCartCalls[0] != want {
			t.Fatalf("ManageCart calls = %+v, want [%+v]", repo.manageCartCalls, want)
		}
		if !reflect.DeepEqual(cart, repo.cart) {
			t.Fatalf("cart = %+v, want the repository's echoed cart", cart)
		}
	})

	t.Run("zero and negative quantities pass through unmodified", func(t *testing.T) {
		for _, qty := range []int{0, -2} {
			repo := &fakeRepo{}
			svc := NewService(repo, &fakeResolver{product: widget}, &fakeNotifier{})

			if _, err := svc.AddCartItem(context.Background(), "c1", "p1", qty); err != nil {
				t.Fatalf("qty %d: unexpected error: %v", qty, err)
			}
			if got := repo.manageCartCalls[0].qty; got != qty {
				t.Fatalf("qty forwarded = %d, want %d", got, qty)
			}
		}
	})

	t.Run("unresolvable product fails without touching the repository", func(t *testing.T) {
		repo := &fakeRepo{}
		resolver := &fakeResolver{err: domain.ErrProductNotFound}
		svc := NewService(repo, resolver, &fakeNotifier{})

		_, err := svc.AddCartItem(context.Background(), "c1", "missing", 2)
		if !errors.Is(err, domain.ErrProductNotFound) {
			t.Fatalf("err = %v, want ErrProductNotFound", err)
		}
		if len(repo.manageCartCalls) != 0 {
			t.Fatalf("repository was called %d times, want 0", len(repo.manageCartCalls))
		}
	})
}

func TestRemoveCartItem(t *testing.T) {
	t.Run("deletes by identity with no product resolution", func(t *testing.T) {
		repo := &fakeRepo{cart: domain.Cart{CustomerID: "c1", Items: []domain.CartItem{}}}
		resolver := &fakeResolver{}
		svc := NewService(repo, resolver, &fakeNotifier{})

		cart, err := svc.RemoveCartItem(context.Background(), "c1", "p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		call := repo.manageCartCalls[0]
		if call.qty != 0 || !call.remove || call.product.ID != "p1" {
			t.Fatalf("ManageCart call = %+v, want qty 0 with remove flag for p1", call)
		}
		if len(resolver.singleIDs)+len(resolver.batchCalls) != 0 {
			t.Fatal("RemoveCartItem must not call the product resolver")
		}
		if !reflect.DeepEqual(cart, repo.cart) {
			t.Fatalf("cart = %+v, want the repository's projection", cart)
		}
	})

	t.Run("removing an absent item is an idempotent no-op", func(t *testing.T) {
		repo := &fakeRepo{cart: domain.Cart{CustomerID: "c1", Items: []domain.CartItem{}}}
		svc := NewService(repo, &fakeResolver{}, &fakeNotifier{})

		first, err := svc.RemoveCartItem(context.Background(), "c1", "ghost")
		if err != nil {
			t.Fatalf("first removal: %v", err)
		}
		second, err := svc.RemoveCartItem(context.Background(), "c1", "ghost")
		if err != nil {
			t.Fatalf("second removal: %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("projections differ: %+v vs %+v", first, second)
		}
	})
}

func TestGetWishlist(t *testing.T) {
	t.Run("missing wishlist yields empty result and no RPC", func(t *testing.T) {
		repo := &fakeRepo{wishlist: domain.Wishlist{CustomerID: "c1", ProductIDs: []string{}}}
		resolver := &fakeResolver{}
		svc := NewService(repo, resolver, &fakeNotifier{})

		products, err := svc.GetWishlist(context.Background(), "c1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(products) != 0 {
			t.Fatalf("products = %+v, want empty", products)
		}
		if len(resolver.batchCalls) != 0 {
			t.Fatal("resolver must not be called for an empty wishlist")
		}
	})

	t.Run("issues exactly one batched call with every stored id", func(t *testing.T) {
		resolved := []domain.Product{
			{ID: "p1", Name: "Product 1", Price: 100},
			{ID: "p2", Name: "Product 2", Price: 200},
		}
		repo := &fakeRepo{wishlist: domain.Wishlist{CustomerID: "c1", ProductIDs: []string{"p1", "p2"}}}
		resolver := &fakeResolver{products: resolved}
		svc := NewService(repo, resolver, &fakeNotifier{})

		products, err := svc.GetWishlist(context.Background(), "c1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(resolver.batchCalls) != 1 {
			t.Fatalf("batch calls = %d, want exactly 1", len(resolver.batchCalls))
		}
		if !reflect.DeepEqual(resolver.batchCalls[0], []string{"p1", "p2"}) {
			t.Fatalf("batch ids = %v, want [p1 p2]", resolver.batchCalls[0])
		}
		if !reflect.DeepEqual(products, resolved) {
			t.Fatalf("products = %+v, want resolver-returned order", products)
		}
	})
}

func TestWishlistMutations(t *testing.T) {
	repo := &fakeRepo{wishlist: domain.Wishlist{CustomerID: "c1", ProductIDs: []string{"p1"}}}
	svc := NewService(repo, &fakeResolver{}, &fakeNotifier{})

	if _, err := svc.AddToWishlist(context.Background(), "c1", "p1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.RemoveFromWishlist(context.Background(), "c1", "p1"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if len(repo.manageWishlistCalls) != 2 {
		t.Fatalf("ManageWishlist calls = %d, want 2", len(repo.manageWishlistCalls))
	}
	if repo.manageWishlistCalls[0].remove {
		t.Fatal("add call must not set the remove flag")
	}
	if !repo.manageWishlistCalls[1].remove {
		t.Fatal("remove call must set the remove flag")
	}
}

func TestCreateOrder(t *testing.T) {
	created := domain.Order{ID: "o1", CustomerID: "c1", TransactionID: "txn-9", Status: domain.StatusPending}

	t.Run("returns the repository's order verbatim", func(t *testing.T) {
		repo := &fakeRepo{order: created}
		notifier := &fakeNotifier{}
		svc := NewService(repo, &fakeResolver{}, notifier)

		order, err := svc.CreateOrder(context.Background(), "c1", "txn-9")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(order, created) {
			t.Fatalf("order = %+v, want %+v", order, created)
		}
		if len(notifier.events) != 1 || notifier.events[0].Type != domain.EventOrderCreated {
			t.Fatalf("events = %+v, want one %s event", notifier.events, domain.EventOrderCreated)
		}
	})

	t.Run("repository failure propagates and emits nothing", func(t *testing.T) {
		repo := &fakeRepo{err: errors.New("write conflict")}
		notifier := &fakeNotifier{}
		svc := NewService(repo, &fakeResolver{}, notifier)

		if _, err := svc.CreateOrder(context.Background(), "c1", "txn-9"); err == nil {
			t.Fatal("expected error")
		}
		if len(notifier.events) != 0 {
			t.Fatalf("events = %+v, want none", notifier.events)
		}
	})
}

func TestUpdateOrderStatus(t *testing.T) {
	pending := domain.Order{ID: "o1", CustomerID: "c1", Status: domain.StatusPending}

	t.Run("forwards arguments as (orderID, customerID, status)", func(t *testing.T) {
		repo := &fakeRepo{order: pending}
		svc := NewService(repo, &fakeResolver{}, &fakeNotifier{})

		order, err := svc.UpdateOrderStatus(context.Background(), "c1", "o1", "confirmed")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := updateStatusCall{orderID: "o1", customerID: "c1", status: domain.StatusConfirmed}
		if len(repo.updateStatusCalls) != 1 || repo.updateStatusCalls[0] != want {
			t.Fatalf("UpdateOrderStatus calls = %+v, want [%+v]", repo.updateStatusCalls, want)
		}
		if order.Status != domain.StatusConfirmed {
			t.Fatalf("status = %s, want confirmed", order.Status)
		}
	})

	t.Run("unknown status is rejected before any write", func(t *testing.T) {
		repo := &fakeRepo{order: pending}
		svc := NewService(repo, &fakeResolver{}, &fakeNotifier{})

		_, err := svc.UpdateOrderStatus(context.Background(), "c1", "o1", "teleported")
		if !errors.Is(err, domain.ErrInvalidStatus) {
			t.Fatalf("err = %v, want ErrInvalidStatus", err)
		}
		if len(repo.updateStatusCalls) != 0 {
			t.Fatal("no write must happen for an unknown status")
		}
	})

	t.Run("illegal transition is rejected", func(t *testing.T) {
		repo := &fakeRepo{order: domain.Order{ID: "o1", CustomerID: "c1", Status: domain.StatusDelivered}}
		svc := NewService(repo, &fakeResolver{}, &fakeNotifier{})

		_, err := svc.UpdateOrderStatus(context.Background(), "c1", "o1", "pending")
		if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("err = %v, want ErrInvalidTransition", err)
		}
		if len(repo.updateStatusCalls) != 0 {
			t.Fatal("no write must happen for an illegal transition")
		}
	})

	t.Run("emits a status-changed event on success", func(t *testing.T) {
		repo := &fakeRepo{order: pending}
		notifier := &fakeNotifier{}
		svc := NewService(repo, &fakeResolver{}, notifier)

		if _, err := svc.UpdateOrderStatus(context.Background(), "c1", "o1", "cancelled"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(notifier.events) != 1 || notifier.events[0].Type != domain.EventOrderStatusChanged {
			t.Fatalf("events = %+v, want one %s event", notifier.events, domain.EventOrderStatusChanged)
		}
	})
}

func TestOrderReads(t *testing.T) {
	orders := []domain.Order{
		{ID: "o1", CustomerID: "c1"},
		{ID: "o2", CustomerID: "c2"},
	}
	repo := &fakeRepo{order: orders[0], orders: orders}
	svc := NewService(repo, &fakeResolver{}, &fakeNotifier{})

	order, err := svc.GetOrder(context.Background(), "c1", "o1")
	if err != nil || order.ID != "o1" {
		t.Fatalf("GetOrder = (%+v, %v)", order, err)
	}

	got, err := svc.GetOrders(context.Background(), "c1")
	if err != nil || !reflect.DeepEqual(got, orders) {
		t.Fatalf("GetOrders = (%+v, %v)", got, err)
	}

	all, err := svc.GetAllOrders(context.Background())
	if err != nil || !reflect.DeepEqual(all, orders) {
		t.Fatalf("GetAllOrders = (%+v, %v)", all, err)
	}
}
