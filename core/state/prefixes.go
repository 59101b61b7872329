package state

import (
	"encoding/hex"
	"fmt"
)

const (
	accountPrefix = "accounts/"
	pausePrefix   = "pause/"
)

var (
	streamCounterKey  = []byte("streams/next-id")
	requestCounterKey = []byte("stream-requests/next-id")
	auctionCounterKey = []byte("auctions/next-id")
)

func accountKey(addr []byte) []byte {
	return []byte(accountPrefix + hex.EncodeToString(addr))
}

func streamKey(id uint64) []byte {
	return []byte(fmt.Sprintf("streams/%d", id))
}

func requestKey(id uint64) []byte {
	return []byte(fmt.Sprintf("stream-requests/%d", id))
}

func auctionKey(id uint64) []byte {
	return []byte(fmt.Sprintf("auctions/%d", id))
}

func sharingKey(auctionID uint64, addr [20]byte) []byte {
	return []byte(fmt.Sprintf("auctions/%d/shares/%s", auctionID, hex.EncodeToString(addr[:])))
}

func pauseKey(module string) []byte {
	return []byte(pausePrefix + module)
}
