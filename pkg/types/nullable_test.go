package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNullableStates(t *testing.T) {
	type patch struct {
		SupplierID Nullable[uuid.UUID] `json:"supplierId"`
	}
	id := uuid.New()

	cases := []struct {
		name    string
		body    string
		valid   bool
		cleared bool
		want    *uuid.UUID
	}{
		{name: "absent", body: `{}`},
		{name: "null", body: `{"supplierId": null}`, valid: true, cleared: true},
		{name: "value", body: `{"supplierId": "` + id.String() + `"}`, valid: true, want: &id},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got patch
			require.NoError(t, json.Unmarshal([]byte(tc.body), &got))
			require.Equal(t, tc.valid, got.SupplierID.Valid)
			require.Equal(t, tc.cleared, got.SupplierID.Cleared())
			require.Equal(t, tc.want, got.SupplierID.Value)
		})
	}
}

func TestNullableRejectsMalformedValue(t *testing.T) {
	var got struct {
		ExpiryDate Nullable[time.Time] `json:"expiryDate"`
	}
	require.Error(t, json.Unmarshal([]byte(`{"expiryDate": "not-a-date"}`), &got))

	require.NoError(t, json.Unmarshal([]byte(`{"expiryDate": "2027-01-02T00:00:00Z"}`), &got))
	require.Equal(t, 2027, got.ExpiryDate.Value.Year())
}
