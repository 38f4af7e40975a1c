package state

import (
	"encoding/binary"
	"strings"
)

var (
	accountPrefix        = []byte("accounts/")
	chainHeightKey       = []byte("chain/height")
	chainGenesisKey      = []byte("chain/genesis")
	lendingDepositPrefix = []byte("lending/deposit/")
	lendingBorrowPrefix  = []byte("lending/borrowed/")
	lendingCollatPrefix  = []byte("lending/collateral/")
	lendingLoanPrefix    = []byte("lending/loan/")
	lendingLoanSeqKey    = []byte("lending/loan/seq")
	lendingStatsKey      = []byte("lending/stats")
	lendingOraclePrefix  = []byte("lending/oracle/")
	ammPoolPrefix        = []byte("amm/pool/")
	ammPoolSeqKey        = []byte("amm/pool/seq")
	ammSharesPrefix      = []byte("amm/shares/")
	ammMembershipPrefix  = []byte("amm/memberships/")
	ammSwapPrefix        = []byte("amm/swap/")
	ammFarmPrefix        = []byte("amm/farm/")
	ammUserFarmPrefix    = []byte("amm/farm/user/")
	ammStatsKey          = []byte("amm/stats")
)

func addrKey(prefix []byte, addr []byte) []byte {
	buf := make([]byte, 0, len(prefix)+len(addr))
	buf = append(buf, prefix...)
	return append(buf, addr...)
}

func idKey(prefix []byte, id uint64) []byte {
	buf := make([]byte, 0, len(prefix)+8)
	buf = append(buf, prefix...)
	return binary.BigEndian.AppendUint64(buf, id)
}

func idAddrKey(prefix []byte, id uint64, addr []byte) []byte {
	buf := make([]byte, 0, len(prefix)+8+1+len(addr))
	buf = append(buf, prefix...)
	buf = binary.BigEndian.AppendUint64(buf, id)
	buf = append(buf, '/')
	return append(buf, addr...)
}

func assetKey(prefix []byte, asset string) []byte {
	trimmed := strings.TrimSpace(asset)
	buf := make([]byte, 0, len(prefix)+len(trimmed))
	buf = append(buf, prefix...)
	return append(buf, trimmed...)
}
