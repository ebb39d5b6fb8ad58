package features

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
	"github.com/yourusername/scan-pos/internal/infrastructure/storage"
	"github.com/yourusername/scan-pos/internal/usecase"
)

type cartTestContext struct {
	products repository.ProductRepository
	cartRepo *storage.MemoryCartRepository
	policy   usecase.CartPolicy
	cart     usecase.CartUseCase

	lastResult  *usecase.ScanResult
	err         error
	lastVersion string
}

func (c *cartTestContext) reset() {
	c.products = storage.NewMemoryProductRepository()
	c.cartRepo = storage.NewMemoryCartRepository()
	c.policy = usecase.DefaultCartPolicy()
	c.policy.RetryBackoff = time.Millisecond
	c.cart = nil
	c.lastResult = nil
	c.err = nil
	c.lastVersion = ""
}

func (c *cartTestContext) newCart() usecase.CartUseCase {
	return usecase.NewCartUseCase("global", c.cartRepo, c.products, c.policy, nil)
}

func (c *cartTestContext) aCatalogWithProducts(table *godog.Table) error {
	if len(table.Rows) < 2 {
		return errors.New("catalog table has no rows")
	}
	header := table.Rows[0].Cells
	var products []entity.Product
	for _, row := range table.Rows[1:] {
		fields := make(map[string]string, len(header))
		for i, cell := range row.Cells {
			fields[header[i].Value] = cell.Value
		}
		price, err := entity.ParseMoney(fields["price"])
		if err != nil {
			return err
		}
		products = append(products, entity.Product{
			ID:      fields["id"],
			Barcode: fields["barcode"],
			Name:    fields["name"],
			Price:   price,
			Stock:   100,
		})
	}
	return c.products.UpdateCatalog(context.Background(), entity.ProductCatalog{Products: products, Source: "feature", UpdatedAt: time.Now()})
}

func (c *cartTestContext) anEmptyCart() error {
	c.cart = c.newCart()
	return nil
}

func (c *cartTestContext) duplicateScansIncrementQuantity() error {
	c.policy.Duplicate = usecase.DuplicateIncrement
	c.cart = c.newCart()
	return nil
}

func (c *cartTestContext) iScan(barcode string) error {
	ctx := context.Background()
	if snap, err := c.cart.Snapshot(ctx); err == nil {
		c.lastVersion = snap.Version
	}
	c.lastResult, c.err = c.cart.AddScannedItem(ctx, barcode)
	return nil
}

func (c *cartTestContext) iRemoveItem(key string) error {
	c.err = c.cart.RemoveItem(context.Background(), key)
	return c.err
}

func (c *cartTestContext) iSetTheQuantityOfItemTo(key string, qty int) error {
	_, _, c.err = c.cart.SetQuantity(context.Background(), key, qty)
	return nil
}

func (c *cartTestContext) iClearTheCart() error {
	c.err = c.cart.Clear(context.Background())
	return c.err
}

func (c *cartTestContext) terminalsScanAtTheSameTime(terminals int, a, b, d string) error {
	codes := []string{a, b, d}
	policy := c.policy
	policy.MaxAttempts = terminals * len(codes)

	var wg sync.WaitGroup
	errs := make(chan error, terminals*len(codes))
	for i := 0; i < terminals; i++ {
		for _, code := range codes {
			wg.Add(1)
			go func(code string) {
				defer wg.Done()
				cart := usecase.NewCartUseCase("global", c.cartRepo, c.products, policy, nil)
				_, err := cart.AddScannedItem(context.Background(), code)
				if err != nil && entity.KindOf(err) != entity.KindDuplicateItem {
					errs <- err
				}
			}(code)
		}
	}
	wg.Wait()
	close(errs)
	if err, ok := <-errs; ok {
		return fmt.Errorf("unexpected scan error: %w", err)
	}
	return nil
}

func (c *cartTestContext) theScanSucceedsWithKey(key string) error {
	if c.err != nil {
		return fmt.Errorf("expected success but got error: %v", c.err)
	}
	if c.lastResult == nil || c.lastResult.Item.Key != key {
		return fmt.Errorf("expected key %q, got %+v", key, c.lastResult)
	}
	return nil
}

func (c *cartTestContext) theScanFailsWith(kind string) error {
	if c.err == nil {
		return errors.New("expected scan to fail but it succeeded")
	}
	if got := entity.KindOf(c.err); string(got) != kind {
		return fmt.Errorf("expected %s, got %s (%v)", kind, got, c.err)
	}
	return nil
}

func (c *cartTestContext) snapshot() (*entity.CartSnapshot, error) {
	return c.cart.Snapshot(context.Background())
}

func (c *cartTestContext) theCartHasItems(n int) error {
	snap, err := c.snapshot()
	if err != nil {
		return err
	}
	if got := usecase.Count(snap.State); got != n {
		return fmt.Errorf("expected %d items, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) theCartTotalIs(total string) error {
	snap, err := c.snapshot()
	if err != nil {
		return err
	}
	if got := usecase.Total(snap.State).String(); got != total {
		return fmt.Errorf("expected total %s, got %s", total, got)
	}
	return nil
}

func (c *cartTestContext) theCartVersionIsUnchanged() error {
	snap, err := c.snapshot()
	if err != nil {
		return err
	}
	if snap.Version != c.lastVersion {
		return fmt.Errorf("version changed from %q to %q", c.lastVersion, snap.Version)
	}
	return nil
}

func (c *cartTestContext) theItemHasQuantity(key string, qty int) error {
	snap, err := c.snapshot()
	if err != nil {
		return err
	}
	item, ok := snap.State.Items[key]
	if !ok {
		return fmt.Errorf("item %q not in cart", key)
	}
	if item.Quantity != qty {
		return fmt.Errorf("expected quantity %d, got %d", qty, item.Quantity)
	}
	return nil
}

func (c *cartTestContext) theCartKeysAre(a, b, d string) error {
	snap, err := c.snapshot()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(snap.State.Items))
	for k := range snap.State.Items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if strings.Join(keys, ",") != strings.Join([]string{a, b, d}, ",") {
		return fmt.Errorf("expected keys %s, %s, %s, got %v", a, b, d, keys)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a catalog with products:$`, tc.aCatalogWithProducts)
	ctx.Step(`^an empty cart$`, tc.anEmptyCart)
	ctx.Step(`^duplicate scans increment quantity$`, tc.duplicateScansIncrementQuantity)

	// When steps
	ctx.Step(`^I scan "([^"]*)"$`, tc.iScan)
	ctx.Step(`^I remove item "([^"]*)"$`, tc.iRemoveItem)
	ctx.Step(`^I set the quantity of item "([^"]*)" to (-?\d+)$`, tc.iSetTheQuantityOfItemTo)
	ctx.Step(`^I clear the cart$`, tc.iClearTheCart)
	ctx.Step(`^(\d+) terminals scan "([^"]*)", "([^"]*)" and "([^"]*)" at the same time$`, tc.terminalsScanAtTheSameTime)

	// Then steps
	ctx.Step(`^the scan succeeds with key "([^"]*)"$`, tc.theScanSucceedsWithKey)
	ctx.Step(`^the scan fails with "([^"]*)"$`, tc.theScanFailsWith)
	ctx.Step(`^the operation fails with "([^"]*)"$`, tc.theScanFailsWith)
	ctx.Step(`^the cart has (\d+) items?$`, tc.theCartHasItems)
	ctx.Step(`^the cart total is "([^"]*)"$`, tc.theCartTotalIs)
	ctx.Step(`^the cart version is unchanged$`, tc.theCartVersionIsUnchanged)
	ctx.Step(`^the item "([^"]*)" has quantity (\d+)$`, tc.theItemHasQuantity)
	ctx.Step(`^the cart keys are "([^"]*)", "([^"]*)" and "([^"]*)"$`, tc.theCartKeysAre)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../../../features/cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
