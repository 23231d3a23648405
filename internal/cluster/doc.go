// Package cluster implements the per-video hierarchical clustering pass:
// grid-stratified sampling, the multimodal product kernel, the ridge
// escalation loop around the spectral embedding, the temporal fallback
// split and reconstruction of the cluster tree from leaf codes.
//
// Node codes use binary-heap numbering. The root is 1 and the children of
// node c are 2c and 2c+1.
package cluster
