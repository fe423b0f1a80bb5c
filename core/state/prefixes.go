package state

import "encoding/binary"

var (
	creatorAccountPrefix  = []byte("creator/account/")
	streamRecordPrefix    = []byte("stream/record/")
	engagementPrefix      = []byte("points/engagement/")
	pointsAccountPrefix   = []byte("points/account/")
	pointsDistributedKey  = []byte("points/distributed")
	tierPrefix            = []byte("subscription/tier/")
	subscriptionPrefix    = []byte("subscription/record/")
	challengePrefix       = []byte("challenge/record/")
	contributionPrefix    = []byte("challenge/contribution/")
	platformFeePercentKey = []byte("settlement/fee-percent")
	feeTotalsPrefix       = []byte("settlement/totals/")
	balancePrefix         = []byte("bank/balance/")
	sequencePrefix        = []byte("sequence/")
	modulePausedPrefix    = []byte("params/paused/")
)

func u64(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}
