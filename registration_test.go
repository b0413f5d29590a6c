package zvt

import "testing"

func TestConfigByteZeroValue(t *testing.T) {
	// ECR print type plus suppressed payment receipts.
	if got := (RegistrationConfig{}).ConfigByte(); got != 0x82 {
		t.Fatalf("zero-value config byte must be 0x82, got 0x%02X", got)
	}
}

func TestConfigByteAlwaysCarriesPrintType(t *testing.T) {
	rc := RegistrationConfig{
		PaymentReceiptViaPT:   true,
		SuppressAdminReceipts: true,
		IntermediateStatus:    true,
		DisablePaymentViaPT:   true,
		DisableAdminViaPT:     true,
	}
	got := rc.ConfigByte()
	if !hasBit(got, bitECRPrintType) {
		t.Fatalf("print-type bit must always be set, got 0x%02X", got)
	}
	if hasBit(got, bitSuppressPaymentReceipt) {
		t.Fatalf("PT receipts enabled must clear the suppress bit, got 0x%02X", got)
	}
	for _, pos := range []uint{bitSuppressAdminReceipt, bitIntermediateStatus, bitDisablePaymentViaPT, bitDisableAdminViaPT} {
		if !hasBit(got, pos) {
			t.Fatalf("bit %d must be set, got 0x%02X", pos, got)
		}
	}
}

func TestCurrencyDefaultsToEUR(t *testing.T) {
	if got := (RegistrationConfig{}).currency(); got != CurrencyEUR {
		t.Fatalf("expected EUR default, got %d", got)
	}
	if got := (RegistrationConfig{Currency: 756}).currency(); got != 756 {
		t.Fatalf("expected explicit currency, got %d", got)
	}
}
