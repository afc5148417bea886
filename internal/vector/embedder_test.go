// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

package vector

import (
	"context"
	"math"
	"testing"
)

func TestHashingEmbedderDeterministic(t *testing.T) {
	e := NewHashingEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "A sturdy oak table for the dining room")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	b, err := e.Embed(ctx, "A sturdy oak table for the dining room")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	if len(a) != 64 {
		t.Fatalf("dimensions = %d, want 64", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d: %v != %v", i, a[i], b[i])
		}
	}
}

func TestHashingEmbedderNormalized(t *testing.T) {
	e := NewHashingEmbedder(32)
	vec, err := e.Embed(context.Background(), "wireless noise cancelling headphones")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-5 {
		t.Errorf("L2 norm = %v, want 1", math.Sqrt(norm))
	}
}

func TestHashingEmbedderEmptyText(t *testing.T) {
	e := NewHashingEmbedder(16)
	vec, err := e.Embed(context.Background(), "   ...   ")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	for _, v := range vec {
		if v != 0 {
			t.Fatalf("expected zero vector for token-free text, got %v", vec)
		}
	}
}

func TestHashingEmbedderMinimumDims(t *testing.T) {
	e := NewHashingEmbedder(2)
	if e.Dimensions() != 8 {
		t.Errorf("Dimensions() = %d, want floor of 8", e.Dimensions())
	}
}

func TestCosineOrdersBySimilarity(t *testing.T) {
	e := NewHashingEmbedder(256)
	ctx := context.Background()

	base, _ := e.Embed(ctx, "epic fantasy novel with dragons and ancient magic")
	near, _ := e.Embed(ctx, "fantasy novel about dragons and magic")
	far, _ := e.Embed(ctx, "stainless steel kitchen sink with drain")

	if cosine(base, near) <= cosine(base, far) {
		t.Errorf("cosine(base, near) = %v not greater than cosine(base, far) = %v",
			cosine(base, near), cosine(base, far))
	}
	if sim := cosine(base, base); math.Abs(sim-1) > 1e-9 {
		t.Errorf("self similarity = %v, want 1", sim)
	}
}

func TestCosineDegenerate(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
	}{
		{"mismatched lengths", []float32{1, 0}, []float32{1}},
		{"zero vector", []float32{0, 0}, []float32{1, 0}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cosine(tt.a, tt.b); got != 0 {
				t.Errorf("cosine() = %v, want 0", got)
			}
		})
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	in := []float32{0.5, -1.25, 0, 3.75}
	out := deserializeVector(serializeVector(in))
	if len(out) != len(in) {
		t.Fatalf("length = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("element %d = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestDocumentProductID(t *testing.T) {
	tests := []struct {
		name   string
		doc    Document
		wantID int64
		wantOK bool
	}{
		{"valid", NewProductDocument(42, "Books", 10, "x"), 42, true},
		{"missing metadata", Document{Content: "x"}, 0, false},
		{"absent id key", Document{Metadata: map[string]string{MetaCategory: "Books"}}, 0, false},
		{"malformed id", Document{Metadata: map[string]string{MetaID: "forty-two"}}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := tt.doc.ProductID()
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("ProductID() = (%d, %v), want (%d, %v)", id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}
