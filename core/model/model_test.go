package model

import (
	"bytes"
	"path/filepath"
	"testing"
)

type fittedThing struct {
	BaseEstimator
	Coef []float64
}

func TestBaseEstimator(t *testing.T) {
	var e BaseEstimator
	if e.IsFitted() {
		t.Fatal("zero value should not be fitted")
	}
	e.SetFitted()
	if !e.IsFitted() {
		t.Fatal("SetFitted had no effect")
	}
	e.Reset()
	if e.IsFitted() {
		t.Fatal("Reset had no effect")
	}
}

func TestSaveLoadModel(t *testing.T) {
	src := &fittedThing{Coef: []float64{2, 7}}
	src.SetFitted()

	path := filepath.Join(t.TempDir(), "model.gob")
	if err := SaveModel(src, path); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}

	var dst fittedThing
	if err := LoadModel(&dst, path); err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if !dst.IsFitted() {
		t.Error("fitted state was not persisted")
	}
	if len(dst.Coef) != 2 || dst.Coef[0] != 2 || dst.Coef[1] != 7 {
		t.Errorf("Coef = %v", dst.Coef)
	}
}

func TestLoadModelFromReader_Garbage(t *testing.T) {
	var dst fittedThing
	if err := LoadModelFromReader(&dst, bytes.NewBufferString("not gob")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestModelWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights ModelWeights
		wantErr bool
	}{
		{
			name: "valid",
			weights: ModelWeights{
				ModelType: "GDRegressor", Version: WeightsFormatVersion,
				Coefficients: []float64{7}, Intercept: 2, Features: []string{"x"}, IsFitted: true,
			},
		},
		{
			name:    "missing type",
			weights: ModelWeights{Version: WeightsFormatVersion},
			wantErr: true,
		},
		{
			name:    "fitted without coefficients",
			weights: ModelWeights{ModelType: "GDRegressor", Version: WeightsFormatVersion, IsFitted: true},
			wantErr: true,
		},
		{
			name: "feature names mismatch",
			weights: ModelWeights{
				ModelType: "GDRegressor", Version: WeightsFormatVersion,
				Coefficients: []float64{1, 2}, Features: []string{"x"}, IsFitted: true,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.weights.ToJSON()
			if err != nil {
				t.Fatal(err)
			}
			var decoded ModelWeights
			err = decoded.FromJSON(data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && decoded.Intercept != tt.weights.Intercept {
				t.Errorf("Intercept = %v, want %v", decoded.Intercept, tt.weights.Intercept)
			}
		})
	}
}
