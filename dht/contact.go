package dht

import (
	"fmt"
	"net"
	"strconv"

	"github.com/kutluhann/kademlia-routing/id_tools"
)

// Contact is what the table knows about one remote peer. Identity is the ID
// alone; the endpoint fields may be replaced freely.
type Contact struct {
	ID   id_tools.NodeID `json:"id"`
	IP   string          `json:"ip"`
	Port int             `json:"port"`
	Name string          `json:"name,omitempty"`
}

func NewContact(id id_tools.NodeID, ip string, port int) Contact {
	return Contact{
		ID:   id,
		IP:   ip,
		Port: port,
	}
}

// Equal reports whether both contacts name the same peer.
func (c Contact) Equal(other Contact) bool {
	return c.ID == other.ID
}

func (c Contact) Address() string {
	return net.JoinHostPort(c.IP, strconv.Itoa(c.Port))
}

func (c Contact) String() string {
	if c.Name != "" {
		return fmt.Sprintf("%s(%s)@%s", c.Name, c.ID.Short(), c.Address())
	}
	return fmt.Sprintf("%s@%s", c.ID.Short(), c.Address())
}
