// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package game wires the rest of internal/* into the authoritative server
// loop: a Hub maintaining connected clients and players, a fixed-tick
// simulation, and message dispatch. Client/ClientData/ClientList are
// adapted directly from server/client.go's doubly-linked-list connection
// abstraction, generalized from boats-in-a-hub to voxel-world players.
package game

// Client is an actor on the Hub.
type Client interface {
	// Close closes additional resources. Always called by the hub goroutine.
	Close()
	// Data allows the Client to be added to a double-linked list.
	Data() *ClientData
	// Destroy triggers client destruction. Only the Client calls this.
	Destroy()
	// Init sets up receive goroutines. Always called by the hub goroutine.
	Init()
	// SendJSON sends a textual control message.
	SendJSON(v interface{})
	// SendBinary sends a raw binary frame (a Snapshot).
	SendBinary(b []byte)
}

// ClientData is the data every Client must embed.
type ClientData struct {
	Player   *Player
	Hub      *Hub
	Previous Client
	Next     Client
}

// ClientList is a doubly-linked list of Clients, iterated as:
//
//	for c := list.First; c != nil; c = c.Data().Next {}
type ClientList struct {
	First Client
	Last  Client
	Len   int
}

// Add appends client to the list.
func (list *ClientList) Add(client Client) {
	data := client.Data()
	if data.Previous != nil || data.Next != nil {
		panic("game: client already added")
	}

	if list.First == nil {
		list.First = client
	} else if list.Last == nil {
		panic("game: invalid client list state")
	} else {
		list.Last.Data().Next = client
		data.Previous = list.Last
	}

	list.Last = client
	list.Len++
}

// Remove removes client from the list and returns the next element.
func (list *ClientList) Remove(client Client) (next Client) {
	data := client.Data()

	if data.Previous != nil {
		data.Previous.Data().Next = data.Next
	} else if list.First == client {
		list.First = data.Next
	} else {
		panic("game: client already removed")
	}

	if data.Next != nil {
		data.Next.Data().Previous = data.Previous
	} else if list.Last == client {
		list.Last = data.Previous
	} else {
		panic("game: client already removed")
	}

	list.Len--
	next = data.Next
	data.Next = nil
	data.Previous = nil
	return
}
