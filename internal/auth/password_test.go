package auth

import "testing"

func TestHasherRoundTrip(t *testing.T) {
	hasher := NewHasher(4) // minimum cost keeps the test fast

	hash, err := hasher.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "" || hash == "correct horse battery staple" {
		t.Fatalf("expected salted hash, got %q", hash)
	}

	if !hasher.Verify("correct horse battery staple", hash) {
		t.Fatal("expected matching password to verify")
	}
	if hasher.Verify("correct horse battery stapler", hash) {
		t.Fatal("expected mismatched password to fail")
	}
	if hasher.Verify("", hash) {
		t.Fatal("expected empty password to fail")
	}
}

func TestHasherDistinctSalts(t *testing.T) {
	hasher := NewHasher(4)

	first, err := hasher.Hash("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := hasher.Hash("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatal("expected per-hash salts to produce distinct outputs")
	}
}

func TestNewHasherClampsCost(t *testing.T) {
	// Out-of-range costs fall back to the bcrypt default rather than failing
	// at hash time.
	for _, cost := range []int{-1, 0, 99} {
		hasher := NewHasher(cost)
		if _, err := hasher.Hash("pw"); err != nil {
			t.Fatalf("cost %d: unexpected error %v", cost, err)
		}
	}
}

func TestIsOwner(t *testing.T) {
	cases := []struct {
		name   string
		acting string
		owner  string
		want   bool
	}{
		{"same id", "user-1", "user-1", true},
		{"case difference", "ABC-123", "abc-123", true},
		{"surrounding space", " user-1 ", "user-1", true},
		{"different ids", "user-1", "user-2", false},
		{"empty acting", "", "user-1", false},
		{"empty owner", "user-1", "", false},
		{"both empty", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsOwner(tc.acting, tc.owner); got != tc.want {
				t.Fatalf("IsOwner(%q, %q) = %v, want %v", tc.acting, tc.owner, got, tc.want)
			}
		})
	}
}
