// Package quarc provides a dense statevector quantum circuit simulation
// engine and the structural analyses a visual circuit editor needs: basis
// state probabilities, reduced single-qubit Bloch vectors, Q-sphere data,
// resource and fidelity estimates, and source emission for external quantum
// programming frameworks.
//
// quarc supports the following gate set:
//   - fixed single-qubit: I, X, Y, Z, H, S, S†, T, T†
//   - parametric single-qubit: RX(θ), RY(θ), RZ(θ)
//   - multi-qubit: CNOT/CCNOT (generalized multi-controlled X), CZ, SWAP
//
// Basis index convention: bit i of a basis index corresponds to qubit i
// (qubit 0 is the least significant bit). Evolution, probability reporting,
// Bloch and Q-sphere extraction and code emission all share this
// convention; bitstrings are printed most-significant qubit first.
package quarc
