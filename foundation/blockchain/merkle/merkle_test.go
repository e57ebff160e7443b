// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.

package merkle_test

import (
	"crypto/md5"
	"crypto/sha256"
	"hash"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/merkle"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// Data uses the sha256 hashing algorithm for the merkle tree.
type Data struct {
	x string
}

// Hash hashes the values using sha256.
func (d Data) Hash() ([]byte, error) {
	h := sha256.New()
	if _, err := h.Write([]byte(d.x)); err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

// Equals tests for equality of two piece of data.
func (d Data) Equals(other Data) bool {
	return d.x == other.x
}

// MD5Data uses the md5 hashing algorithm for the merkle tree.
type MD5Data struct {
	x string
}

// Hash hashes the values using md5.
func (d MD5Data) Hash() ([]byte, error) {
	h := md5.New()
	if _, err := h.Write([]byte(d.x)); err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

// Equals tests for equality of two piece of data.
func (d MD5Data) Equals(other MD5Data) bool {
	return d.x == other.x
}

// =============================================================================

var table = []struct {
	name         string
	data         []Data
	expectedRoot string
}{
	{
		name:         "empty",
		data:         nil,
		expectedRoot: "2e1cfa82b035c26cbbbdae632cea070514eb8b773f616aaeaf668e2f0be8f10d",
	},
	{
		name:         "single",
		data:         []Data{{x: "Hello"}},
		expectedRoot: "185f8db32271fe25f561a6fc938b2e264306ec304eda518007d1764826381969",
	},
	{
		name:         "pair",
		data:         []Data{{x: "Hello"}, {x: "Hi"}},
		expectedRoot: "cc5a550af3f7bb25fe502217b6bce05b31f485c0e12d1db3de7d9eb6913d4f67",
	},
	{
		name:         "odd",
		data:         []Data{{x: "Hello"}, {x: "Hi"}, {x: "Hey"}},
		expectedRoot: "3ae15ad3a608952828de37dedc7d7039614470c49a26cdf298f93f25aeee025d",
	},
	{
		name:         "even",
		data:         []Data{{x: "Hello"}, {x: "Hi"}, {x: "Hey"}, {x: "Hola"}},
		expectedRoot: "8857f04f6b4a06d467ef73cce6d60fa51d1df5cc1c4583ef4c557a3ff9f7a57c",
	},
	{
		name:         "odd-upper-level",
		data:         []Data{{x: "Hello"}, {x: "Hi"}, {x: "Hey"}, {x: "Greetings"}, {x: "Hola"}},
		expectedRoot: "97dcf468951d874f6f960e42d615a083ece580846b10937dcc361e84361fb36c",
	},
	{
		name:         "reordered",
		data:         []Data{{x: "Hi"}, {x: "Hello"}, {x: "Hey"}, {x: "Hola"}},
		expectedRoot: "95c7b538a0fa2eb34da8fa3556ec4f05d1027f6b588854bfeda5426ee1bcae28",
	},
}

// =============================================================================

func Test_MerkleRoot(t *testing.T) {
	t.Log("Given the need to commit to an ordered set of values.")
	{
		for testID, tst := range table {
			t.Logf("\tTest %d:\tWhen handling the %q set.", testID, tst.name)
			{
				f := func(t *testing.T) {
					tree, err := merkle.NewTree(tst.data)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to construct the tree: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to construct the tree.", success, testID)

					if got := tree.RootHex(); got != tst.expectedRoot {
						t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, got)
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.expectedRoot)
						t.Fatalf("\t%s\tTest %d:\tShould get back the expected root.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the expected root.", success, testID)

					again, err := merkle.NewTree(tst.data)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to construct the tree twice: %v", failed, testID, err)
					}

					if again.RootHex() != tree.RootHex() {
						t.Fatalf("\t%s\tTest %d:\tShould get the same root for the same values.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get the same root for the same values.", success, testID)

					if err := tree.Verify(); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to verify the tree: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to verify the tree.", success, testID)

					if len(tree.Values()) != len(tst.data) {
						t.Fatalf("\t%s\tTest %d:\tShould get back every value once.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back every value once.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_OrderSensitive(t *testing.T) {
	a, err := merkle.NewTree([]Data{{x: "Hello"}, {x: "Hi"}})
	if err != nil {
		t.Fatal(err)
	}

	b, err := merkle.NewTree([]Data{{x: "Hi"}, {x: "Hello"}})
	if err != nil {
		t.Fatal(err)
	}

	if a.RootHex() == b.RootHex() {
		t.Fatalf("%s\tShould get a different root when the order changes.", failed)
	}
	t.Logf("%s\tShould get a different root when the order changes.", success)

	c, err := merkle.NewTree([]Data{{x: "Hello"}, {x: "Hi!"}})
	if err != nil {
		t.Fatal(err)
	}

	if a.RootHex() == c.RootHex() {
		t.Fatalf("%s\tShould get a different root when the content changes.", failed)
	}
	t.Logf("%s\tShould get a different root when the content changes.", success)
}

func Test_HashStrategy(t *testing.T) {
	data := []MD5Data{{x: "Hello"}, {x: "Hi"}, {x: "Hey"}}
	exp := "291264b948343b4660c344cf2011736d"

	tree, err := merkle.NewTree(data, merkle.WithHashStrategy[MD5Data](func() hash.Hash { return md5.New() }))
	if err != nil {
		t.Fatalf("%s\tShould be able to construct the tree: %v", failed, err)
	}

	if got := tree.RootHex(); got != exp {
		t.Logf("got: %s", got)
		t.Logf("exp: %s", exp)
		t.Fatalf("%s\tShould get back the expected md5 root.", failed)
	}
	t.Logf("%s\tShould get back the expected md5 root.", success)
}

func Test_VerifyTamper(t *testing.T) {
	tree, err := merkle.NewTree(table[4].data)
	if err != nil {
		t.Fatal(err)
	}

	tree.MerkleRoot = []byte{1}
	if err := tree.Verify(); err == nil {
		t.Fatalf("%s\tShould detect a tampered root.", failed)
	}
	t.Logf("%s\tShould detect a tampered root.", success)

	if err := tree.VerifyData(Data{x: "NotInTestTable"}); err == nil {
		t.Fatalf("%s\tShould not verify data that is not in the tree.", failed)
	}
	t.Logf("%s\tShould not verify data that is not in the tree.", success)
}

func Test_Proof(t *testing.T) {
	for testID, tst := range table {
		if len(tst.data) == 0 {
			continue
		}

		tree, err := merkle.NewTree(tst.data)
		if err != nil {
			t.Fatal(err)
		}

		for _, d := range tst.data {
			if err := tree.VerifyData(d); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould verify data %q: %v", failed, testID, d.x, err)
			}

			proof, order, err := tree.Proof(d)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould get a proof for %q: %v", failed, testID, d.x, err)
			}

			leaf, _ := d.Hash()
			if err := merkle.VerifyProof(leaf, proof, order, tree.MerkleRoot); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould resolve the proof for %q: %v", failed, testID, d.x, err)
			}
		}
		t.Logf("\t%s\tTest %d:\tShould resolve a proof for every value in %q.", success, testID, tst.name)

		if _, _, err := tree.Proof(Data{x: "NotInTestTable"}); err == nil {
			t.Fatalf("\t%s\tTest %d:\tShould not get a proof for missing data.", failed, testID)
		}

		other, _ := Data{x: "NotInTestTable"}.Hash()
		proof, order, _ := tree.Proof(tst.data[0])
		if len(proof) > 0 {
			if err := merkle.VerifyProof(other, proof, order, tree.MerkleRoot); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject a proof for the wrong leaf.", failed, testID)
			}
		}
	}
}
