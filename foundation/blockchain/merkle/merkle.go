// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.
// This code has been cleaned up, refactored, and turned into generics.

// Package merkle provides an implementation of a merkle tree used to commit
// a block to its ordered set of transactions.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
)

// EmptySentinel is hashed to produce the root of a tree with no values.
const EmptySentinel = "empty"

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable[T any] interface {
	Hash() ([]byte, error)
	Equals(other T) bool
}

// =============================================================================

// Tree represents a merkle tree that uses data of some type T that exhibits the
// behavior defined by the Hashable constraint.
//
// A parent digest is the hash of the hex encoded digests of its children
// concatenated left to right. A level with an odd count pairs its last node
// with itself. A tree holding a single value uses that value's digest as the
// root and an empty tree uses the digest of EmptySentinel.
type Tree[T Hashable[T]] struct {
	Root         *Node[T]
	Leafs        []*Node[T]
	MerkleRoot   []byte
	hashStrategy func() hash.Hash
}

// WithHashStrategy is used to change the default hash strategy of using sha256
// when constructing a new tree.
func WithHashStrategy[T Hashable[T]](hashStrategy func() hash.Hash) func(t *Tree[T]) {
	return func(t *Tree[T]) {
		t.hashStrategy = hashStrategy
	}
}

// NewTree constructs a new merkle tree that uses data of some type T that
// exhibits the behavior defined by the Hashable interface.
func NewTree[T Hashable[T]](values []T, options ...func(t *Tree[T])) (*Tree[T], error) {
	t := Tree[T]{
		hashStrategy: sha256.New,
	}

	for _, option := range options {
		option(&t)
	}

	if err := t.Generate(values); err != nil {
		return nil, err
	}

	return &t, nil
}

// Generate constructs the leafs and nodes of the tree from the specified
// data. If the tree has been generated previously, the tree is re-generated
// from scratch.
func (t *Tree[T]) Generate(values []T) error {
	if len(values) == 0 {
		h := t.hashStrategy()
		if _, err := h.Write([]byte(EmptySentinel)); err != nil {
			return err
		}

		t.Root = nil
		t.Leafs = nil
		t.MerkleRoot = h.Sum(nil)

		return nil
	}

	leafs := make([]*Node[T], 0, len(values))
	for _, value := range values {
		hash, err := value.Hash()
		if err != nil {
			return fmt.Errorf("hashing leaf: %w", err)
		}

		leafs = append(leafs, &Node[T]{
			Hash:  hash,
			Value: value,
			leaf:  true,
			Tree:  t,
		})
	}

	root, err := buildIntermediate(leafs, t)
	if err != nil {
		return err
	}

	t.Root = root
	t.Leafs = leafs
	t.MerkleRoot = root.Hash

	return nil
}

// Proof returns the set of hashes and the order of concatenating those
// hashes for proving a value is in the tree.
//
// Hash the data in question and know the merkle tree root hash. For each
// entry in the proof, an order of 0 says the proof digest comes first and an
// order of 1 says it comes second. Hex encode both digests, concatenate them
// in that order and hash the result to get the next digest. The final digest
// should match the merkle root. VerifyProof performs these steps.
func (t *Tree[T]) Proof(data T) ([][]byte, []int64, error) {
	for _, node := range t.Leafs {
		if !node.Value.Equals(data) {
			continue
		}

		var merkleProof [][]byte
		var order []int64
		nodeParent := node.Parent

		for nodeParent != nil {
			if nodeParent.Left == node {
				merkleProof = append(merkleProof, nodeParent.Right.Hash)
				order = append(order, 1) // right leaf, concat second.
			} else {
				merkleProof = append(merkleProof, nodeParent.Left.Hash)
				order = append(order, 0) // left leaf, concat first.
			}
			node = nodeParent
			nodeParent = nodeParent.Parent
		}

		return merkleProof, order, nil
	}

	return nil, nil, errors.New("unable to find data in tree")
}

// Verify validates the hashes at each level of the tree and returns an error
// if the resulting hash at the root of the tree doesn't match the root hash.
func (t *Tree[T]) Verify() error {
	var calculatedMerkleRoot []byte

	switch t.Root {
	case nil:
		h := t.hashStrategy()
		if _, err := h.Write([]byte(EmptySentinel)); err != nil {
			return err
		}
		calculatedMerkleRoot = h.Sum(nil)

	default:
		var err error
		calculatedMerkleRoot, err = t.Root.verify()
		if err != nil {
			return err
		}
	}

	if !bytes.Equal(t.MerkleRoot, calculatedMerkleRoot) {
		return errors.New("root hash invalid")
	}

	return nil
}

// VerifyData indicates whether a given piece of data is in the tree and if the
// hashes are valid for that data. Returns nil if the expected merkle root is
// equivalent to the merkle root calculated on the critical path for a given
// piece of data.
func (t *Tree[T]) VerifyData(data T) error {
	for _, node := range t.Leafs {
		if !node.Value.Equals(data) {
			continue
		}

		currentParent := node.Parent
		for currentParent != nil {
			rightBytes, err := currentParent.Right.CalculateHash()
			if err != nil {
				return err
			}

			leftBytes, err := currentParent.Left.CalculateHash()
			if err != nil {
				return err
			}

			sum, err := t.hashPair(leftBytes, rightBytes)
			if err != nil {
				return err
			}

			if !bytes.Equal(sum, currentParent.Hash) {
				return errors.New("merkle root is not equivalent to the merkle root calculated on the critical path")
			}

			currentParent = currentParent.Parent
		}

		return nil
	}

	return errors.New("merkle root is not equivalent to the merkle root calculated on the critical path")
}

// Values returns the values stored in the tree in insertion order.
func (t *Tree[T]) Values() []T {
	values := make([]T, len(t.Leafs))
	for i, node := range t.Leafs {
		values[i] = node.Value
	}

	return values
}

// RootHex converts the merkle root byte hash to a hex encoded string.
func (t *Tree[T]) RootHex() string {
	return hex.EncodeToString(t.MerkleRoot)
}

// String returns a string representation of the tree. Only leaf nodes are
// included in the output.
func (t *Tree[T]) String() string {
	s := ""

	for _, l := range t.Leafs {
		s += fmt.Sprint(l)
		s += "\n"
	}

	return s
}

// hashPair produces the parent digest for the specified children.
func (t *Tree[T]) hashPair(left []byte, right []byte) ([]byte, error) {
	h := t.hashStrategy()
	if _, err := h.Write([]byte(hex.EncodeToString(left) + hex.EncodeToString(right))); err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

// =============================================================================

// VerifyProof checks a proof produced by Proof against a sha256 tree root
// without access to the tree.
func VerifyProof(leaf []byte, proof [][]byte, order []int64, root []byte) error {
	if len(proof) != len(order) {
		return fmt.Errorf("proof and order mismatch, proof %d, order %d", len(proof), len(order))
	}

	current := leaf
	for i, p := range proof {
		var s string
		switch order[i] {
		case 0:
			s = hex.EncodeToString(p) + hex.EncodeToString(current)
		case 1:
			s = hex.EncodeToString(current) + hex.EncodeToString(p)
		default:
			return fmt.Errorf("invalid order %d at position %d", order[i], i)
		}

		sum := sha256.Sum256([]byte(s))
		current = sum[:]
	}

	if !bytes.Equal(current, root) {
		return errors.New("proof does not resolve to the merkle root")
	}

	return nil
}

// =============================================================================

// Node represents a node, root, or leaf in the tree. It stores pointers to its
// immediate relationships, a hash, the data if it is a leaf, and other metadata.
type Node[T Hashable[T]] struct {
	Tree   *Tree[T]
	Parent *Node[T]
	Left   *Node[T]
	Right  *Node[T]
	Hash   []byte
	Value  T
	leaf   bool
}

// verify walks down the tree until hitting a leaf, calculating the hash at
// each level and returning the resulting hash of the node.
func (n *Node[T]) verify() ([]byte, error) {
	if n.leaf {
		return n.Value.Hash()
	}

	rightBytes, err := n.Right.verify()
	if err != nil {
		return nil, err
	}

	leftBytes, err := n.Left.verify()
	if err != nil {
		return nil, err
	}

	return n.Tree.hashPair(leftBytes, rightBytes)
}

// CalculateHash is a helper function that calculates the hash of the node.
func (n *Node[T]) CalculateHash() ([]byte, error) {
	if n.leaf {
		return n.Value.Hash()
	}

	return n.Tree.hashPair(n.Left.Hash, n.Right.Hash)
}

// String returns a string representation of the node.
func (n *Node[T]) String() string {
	return fmt.Sprintf("%t %x %v", n.leaf, n.Hash, n.Value)
}

// =============================================================================

// buildIntermediate is a helper function that for a given list of nodes,
// constructs the next level of the tree until a single node remains. Returns
// the resulting root node of the tree.
func buildIntermediate[T Hashable[T]](nl []*Node[T], t *Tree[T]) (*Node[T], error) {
	if len(nl) == 1 {
		return nl[0], nil
	}

	nodes := make([]*Node[T], 0, (len(nl)+1)/2)

	for i := 0; i < len(nl); i += 2 {
		left, right := i, i+1
		if i+1 == len(nl) {
			right = i
		}

		sum, err := t.hashPair(nl[left].Hash, nl[right].Hash)
		if err != nil {
			return nil, err
		}

		n := Node[T]{
			Left:  nl[left],
			Right: nl[right],
			Hash:  sum,
			Tree:  t,
		}

		nodes = append(nodes, &n)
		nl[left].Parent = &n
		nl[right].Parent = &n
	}

	return buildIntermediate(nodes, t)
}
