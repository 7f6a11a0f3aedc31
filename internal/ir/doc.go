// Package ir provides the tree-shaped intermediate representation produced
// by the vx front end.
//
// This package contains node types, rendering, and canonical serialization
// only. The generator that builds trees from postfix lives in
// internal/compiler; ir imports nothing internal except op.
//
// Key design constraints:
//   - Node is sealed: only the types in node.go implement it
//   - BinaryOp and Store exclusively own their children; trees are acyclic
//   - Store targets are always Identifier leaves
//   - Canonical JSON (MarshalCanonical) is the only serialization used for
//     content-addressed identity (Hash)
package ir
