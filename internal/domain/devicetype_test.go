package domain_test

import (
	"testing"

	"tplc/internal/domain"
)

func TestTypeFromModel(t *testing.T) {
	tests := []struct {
		model string
		want  domain.DeviceType
	}{
		{"HS103(US)", domain.TypeHS103},
		{"HS110(EU)", domain.TypeHS110},
		{"HS200(US)", domain.TypeHS200},
		{"HS300(US)", domain.TypeHS300},
		{"KP115(US)", domain.TypeKP115},
		{"KP303(UK)", domain.TypeKP303},
		{"EP40(US)", domain.TypeEP40},
		{"KL430(US)", domain.TypeKL430},
		{"KL420L5(US)", domain.TypeKL420L5},
		{"KL430", domain.TypeKL430},
		{"XX999(US)", domain.TypeUnknown},
		{"", domain.TypeUnknown},
	}

	for _, tt := range tests {
		if got := domain.TypeFromModel(tt.model); got != tt.want {
			t.Errorf("TypeFromModel(%q): got %s, want %s", tt.model, got, tt.want)
		}
	}
}

func TestDeviceTypeCapabilities(t *testing.T) {
	if !domain.TypeHS300.HasChildren() {
		t.Error("HS300 should have children")
	}
	if domain.TypeHS110.HasChildren() {
		t.Error("HS110 should not have children")
	}
	if domain.TypeHS300.ChildType() != domain.TypeHS300Child {
		t.Errorf("HS300 child type: got %s", domain.TypeHS300.ChildType())
	}

	if !domain.TypeHS110.HasEmeter() {
		t.Error("HS110 should meter energy")
	}
	if !domain.TypeHS300Child.HasEmeter() {
		t.Error("HS300 outlets meter energy individually")
	}
	if domain.TypeHS300.HasEmeter() {
		t.Error("the HS300 parent itself does not meter energy")
	}
	if domain.TypeHS103.HasEmeter() {
		t.Error("HS103 should not meter energy")
	}

	if !domain.TypeKL430.IsLight() {
		t.Error("KL430 is a light strip")
	}
	if domain.TypeHS103.IsLight() {
		t.Error("HS103 is not a light")
	}

	if !domain.TypeKP303Child.IsChild() {
		t.Error("KP303 Outlet is a child type")
	}
	if domain.TypeKP303.IsChild() {
		t.Error("KP303 parent is not a child type")
	}
}

func TestDeviceTypeCategory(t *testing.T) {
	tests := []struct {
		dtype domain.DeviceType
		want  string
	}{
		{domain.TypeKL430, "light"},
		{domain.TypeHS200, "switch"},
		{domain.TypeHS103, "plug"},
		{domain.TypeHS300Child, "plug"},
	}
	for _, tt := range tests {
		if got := tt.dtype.Category(); got != tt.want {
			t.Errorf("%s category: got %s, want %s", tt.dtype, got, tt.want)
		}
	}
}
