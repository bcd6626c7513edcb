package curve

import (
	"math/big"
	"testing"
)

func TestSecp256k1Arithmetic(t *testing.T) {
	c, err := NewCurve(Secp256k1)
	if err != nil {
		t.Fatalf("Failed to create curve: %v", err)
	}

	a := big.NewInt(7)
	b := big.NewInt(11)

	aG, err := c.ScalarBaseMult(a)
	if err != nil {
		t.Fatalf("Failed to compute aG: %v", err)
	}
	bG, err := c.ScalarBaseMult(b)
	if err != nil {
		t.Fatalf("Failed to compute bG: %v", err)
	}
	sum, err := c.Add(aG, bG)
	if err != nil {
		t.Fatalf("Failed to add points: %v", err)
	}
	want, _ := c.ScalarBaseMult(big.NewInt(18))
	if !sum.IsEqual(want) {
		t.Error("7G + 11G != 18G")
	}

	abG, err := c.ScalarMult(aG, b)
	if err != nil {
		t.Fatalf("Failed to compute b(aG): %v", err)
	}
	want, _ = c.ScalarBaseMult(big.NewInt(77))
	if !abG.IsEqual(want) {
		t.Error("11(7G) != 77G")
	}
}

func TestIdentityHandling(t *testing.T) {
	c, _ := NewCurve(Secp256k1)
	g := c.Generator()

	neg, err := c.Negate(g)
	if err != nil {
		t.Fatalf("Failed to negate: %v", err)
	}
	id, err := c.Add(g, neg)
	if err != nil {
		t.Fatalf("Failed to add: %v", err)
	}
	if !id.IsIdentity() {
		t.Fatal("G + (-G) is not the identity")
	}

	back, err := c.Add(id, g)
	if err != nil {
		t.Fatalf("Failed to add identity: %v", err)
	}
	if !back.IsEqual(g) {
		t.Error("O + G != G")
	}

	if _, err := c.ScalarBaseMult(c.Order()); err != ErrScalarZero {
		t.Errorf("n*G: got %v, want ErrScalarZero", err)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	c, _ := FromName("secp256k1")
	p, _ := c.ScalarBaseMult(big.NewInt(123456789))

	data := c.Marshal(p)
	if len(data) != 33 {
		t.Fatalf("compressed length = %d, want 33", len(data))
	}
	q, err := c.Unmarshal(data)
	if err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if !p.IsEqual(q) {
		t.Error("round trip changed the point")
	}

	if _, err := c.Unmarshal(data[:20]); err != ErrInvalidEncoding {
		t.Errorf("short encoding: got %v", err)
	}
	if _, err := FromName("p256"); err != ErrUnsupportedCurve {
		t.Errorf("FromName(p256): got %v", err)
	}
}

func TestJacobianMatchesRepeatedAddition(t *testing.T) {
	c, _ := NewCurve(Secp256k1)
	acc := c.Identity()
	for i := 1; i <= 9; i++ {
		var err error
		if acc, err = c.Add(acc, c.Generator()); err != nil {
			t.Fatalf("Failed to add generator: %v", err)
		}
		want, _ := c.ScalarBaseMult(big.NewInt(int64(i)))
		if !acc.IsEqual(want) {
			t.Fatalf("%d additions of G differ from %dG", i, i)
		}
	}

	if c.Marshal(c.Identity()) != nil {
		t.Error("identity must not have an encoding")
	}
	if _, err := c.ScalarMult(c.Identity(), big.NewInt(3)); err != ErrInvalidPoint {
		t.Errorf("3*O: got %v, want ErrInvalidPoint", err)
	}
	if _, err := ToBTCEC(c.Identity()); err != ErrInvalidPoint {
		t.Errorf("ToBTCEC(O): got %v", err)
	}
}
