package lsh

import (
	"math/rand"
	"testing"

	"github.com/galeep/plugin-librarian/pkg/minhash"
	"github.com/galeep/plugin-librarian/pkg/shingle"
)

func TestChooseParams_FactorsP(t *testing.T) {
	p := ChooseParams(128, 0.70)
	if p.Bands*p.Rows != 128 {
		t.Fatalf("bands*rows = %d, want 128", p.Bands*p.Rows)
	}
	if p.Bands == 0 || p.Rows == 0 {
		t.Fatalf("got degenerate params %+v", p)
	}
}

func TestIndex_InsertQuery_IdenticalSignaturesCollide(t *testing.T) {
	params := Params{Bands: 20, Rows: 4} // P = 80
	idx := New(params)

	b := minhash.New(80, 1)
	set := makeShingleSet(100, 0)
	sig := b.Signature(set)

	if err := idx.Insert(1, sig); err != nil {
		t.Fatal(err)
	}
	if err := idx.Insert(2, sig); err != nil {
		t.Fatal(err)
	}

	res, err := idx.Query(sig)
	if err != nil {
		t.Fatal(err)
	}
	found := map[int]bool{}
	for _, f := range res {
		found[f] = true
	}
	if !found[1] || !found[2] {
		t.Fatalf("expected both file 1 and file 2 in query result, got %v", res)
	}
}

func TestIndex_DissimilarSignaturesRarelyCollide(t *testing.T) {
	params := ChooseParams(128, 0.9)
	idx := New(params)
	b := minhash.New(128, 99)

	rng := rand.New(rand.NewSource(123))
	collisions := 0
	const trials = 30
	for i := 0; i < trials; i++ {
		setA := makeRandomShingleSet(rng, 200)
		setB := makeRandomShingleSet(rng, 200)
		sigA := b.Signature(setA)
		sigB := b.Signature(setB)

		idx2 := New(params)
		idx2.Insert(1, sigA)
		res, _ := idx2.Query(sigB)
		if len(res) > 0 {
			collisions++
		}
		_ = idx
	}
	if collisions > trials/2 {
		t.Fatalf("unexpectedly high collision rate for unrelated sets: %d/%d", collisions, trials)
	}
}

func makeShingleSet(n int, seedOffset int) shingle.Set {
	set := make(shingle.Set, n)
	for i := 0; i < n; i++ {
		set[randomToken(i+seedOffset)] = struct{}{}
	}
	return set
}

func makeRandomShingleSet(rng *rand.Rand, n int) shingle.Set {
	set := make(shingle.Set, n)
	for i := 0; i < n; i++ {
		set[randomToken(rng.Int())] = struct{}{}
	}
	return set
}

func randomToken(seed int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz"
	out := make([]byte, 8)
	x := uint64(seed)
	for i := range out {
		x = x*1103515245 + 12345
		out[i] = alphabet[(x>>16)%uint64(len(alphabet))]
	}
	return string(out)
}
