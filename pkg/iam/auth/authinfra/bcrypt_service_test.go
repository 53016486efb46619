package authinfra_test

import (
	"testing"

	"github.com/Abraxas-365/authgate/pkg/iam/auth/authinfra"
	"golang.org/x/crypto/bcrypt"
)

func TestBcrypt_Roundtrip(t *testing.T) {
	svc := authinfra.NewBcryptPasswordService(bcrypt.MinCost)

	hash, err := svc.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash must not be the plaintext")
	}

	if !svc.Verify("correct horse battery staple", hash) {
		t.Fatal("expected matching password to verify")
	}
	if svc.Verify("wrong password", hash) {
		t.Fatal("wrong password must not verify")
	}
}

func TestBcrypt_VerifyRejectsGarbageHash(t *testing.T) {
	svc := authinfra.NewBcryptPasswordService(bcrypt.MinCost)

	if svc.Verify("anything", "") {
		t.Fatal("empty hash must never verify")
	}
	if svc.Verify("anything", "not-a-bcrypt-hash") {
		t.Fatal("garbage hash must never verify")
	}
}

func TestBcrypt_SaltedHashesDiffer(t *testing.T) {
	svc := authinfra.NewBcryptPasswordService(bcrypt.MinCost)

	h1, err := svc.Hash("same password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := svc.Hash("same password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of the same password should differ")
	}
}
