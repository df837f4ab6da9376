package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/onlinestore/shopping-service/internal/shopping/domain"
)

// The cart merge must be one update operation: a multi-step
// check-then-write lets two concurrent adds of the same product leave two
// lines behind. This pins the single-stage shape and the dedup condition.
func TestCartMergePipeline(t *testing.T) {
	item := domain.CartItem{
		Product:  domain.Product{ID: "p1", Name: "Widget", Price: 10},
		Quantity: 3,
	}

	pipeline := cartMergePipeline(item)
	if len(pipeline) != 1 {
		t.Fatalf("pipeline stages = %d, want a single atomic stage", len(pipeline))
	}

	stage := pipeline[0]
	if len(stage) != 1 || stage[0].Key != "$set" {
		t.Fatalf("stage = %+v, want one $set", stage)
	}

	set, ok := stage[0].Value.(bson.M)
	if !ok {
		t.Fatalf("$set value = %T", stage[0].Value)
	}
	items, ok := set["items"].(bson.M)
	if !ok {
		t.Fatalf("items expression = %T", set["items"])
	}
	concat, ok := items["$concatArrays"].(bson.A)
	if !ok || len(concat) != 2 {
		t.Fatalf("$concatArrays = %+v, want [filtered lines, new line]", items)
	}

	t.Run("drops the existing line for the same product", func(t *testing.T) {
		filter, ok := concat[0].(bson.M)["$filter"].(bson.M)
		if !ok {
			t.Fatalf("first operand = %+v, want $filter", concat[0])
		}
		cond, ok := filter["cond"].(bson.M)["$ne"].(bson.A)
		if !ok || len(cond) != 2 {
			t.Fatalf("filter cond = %+v, want $ne pair", filter["cond"])
		}
		if cond[0] != "$$line.product._id" || cond[1] != "p1" {
			t.Fatalf("filter cond = %v, want exclusion of product p1", cond)
		}
	})

	t.Run("tolerates a missing items array on upsert", func(t *testing.T) {
		filter := concat[0].(bson.M)["$filter"].(bson.M)
		input, ok := filter["input"].(bson.M)["$ifNull"].(bson.A)
		if !ok || len(input) != 2 || input[0] != "$items" {
			t.Fatalf("filter input = %+v, want $ifNull over $items", filter["input"])
		}
	})

	t.Run("appends exactly the new line", func(t *testing.T) {
		appended, ok := concat[1].(bson.A)
		if !ok || len(appended) != 1 {
			t.Fatalf("appended operand = %+v, want exactly one line", concat[1])
		}
		if got, ok := appended[0].(domain.CartItem); !ok || got != item {
			t.Fatalf("appended line = %+v, want %+v", appended[0], item)
		}
	})
}
