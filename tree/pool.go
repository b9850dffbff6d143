package tree

// NodeID is a stable handle to a node stored in a NodePool.
type NodeID int32

// NilNode is the handle of a missing node.
const NilNode NodeID = -1

// NodePool owns every node of one tree. Nodes are never freed one by one;
// the whole pool goes away with its tree. Handles stay valid for the
// lifetime of the pool, pointers returned by Node only until the next
// Allocate.
type NodePool struct {
	Kind  NodeKind
	Nodes []Node
}

func newNodePool(kind NodeKind) *NodePool {
	return &NodePool{Kind: kind}
}

// Allocate returns the handle of a fresh node at the given level.
func (p *NodePool) Allocate(level int) NodeID {
	p.Nodes = append(p.Nodes, Node{
		Kind:  p.Kind,
		Level: level,
		Left:  NilNode,
		Right: NilNode,
	})
	return NodeID(len(p.Nodes) - 1)
}

// Node returns the node with handle id, or nil for NilNode or an unknown handle.
func (p *NodePool) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(p.Nodes) {
		return nil
	}
	return &p.Nodes[id]
}

// Len returns the number of allocated nodes.
func (p *NodePool) Len() int { return len(p.Nodes) }
