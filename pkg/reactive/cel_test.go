package reactive

import "testing"

func TestExprPredicateOnJSONFields(t *testing.T) {
	adult, err := NewExprPredicate[int, *person](`json.age >= 18`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !adult(&person{Key: 1, Age: 30}) {
		t.Fatalf("30 is an adult")
	}
	if adult(&person{Key: 2, Age: 12}) {
		t.Fatalf("12 is not")
	}
}

func TestExprPredicateSeesIDs(t *testing.T) {
	p, err := NewExprPredicate[int, *person](`id == "7" && unique_id == "person:7"`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !p(&person{Key: 7}) {
		t.Fatalf("id bindings wrong")
	}
	if p(&person{Key: 8}) {
		t.Fatalf("unexpected match")
	}
}

func TestExprPredicateEmptyMatchesAll(t *testing.T) {
	p, err := NewExprPredicate[int, *person]("   ")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !p(&person{Key: 1}) {
		t.Fatalf("empty expression matches everything")
	}
}

func TestExprPredicateCompileError(t *testing.T) {
	if _, err := NewExprPredicate[int, *person](`json.age >=`); err == nil {
		t.Fatalf("want parse error")
	}
}

func TestExprPredicateNonBoolIsFalse(t *testing.T) {
	p, err := NewExprPredicate[int, *person](`json.age`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if p(&person{Key: 1, Age: 30}) {
		t.Fatalf("non-boolean result must not match")
	}
}

func TestExprPredicateWithRegistrySearch(t *testing.T) {
	reg := NewRegistry[int, *person](Sync())
	reg.Insert(
		&person{Key: 1, Name: "a", Age: 10},
		&person{Key: 2, Name: "b", Age: 40},
	)
	pred, err := NewExprPredicate[int, *person](`json.age >= 18 && json.name == "b"`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got := reg.Search(pred)
	if len(got) != 1 || got[0].Key != 2 {
		t.Fatalf("want entity 2, got %v", got)
	}
}
