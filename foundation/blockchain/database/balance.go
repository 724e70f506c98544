package database

// CalculateBalance derives the balance for the address from the chain.
//
// The chain is walked from the tip towards genesis. The most recent block
// holding a transaction authored by the address is the cutoff: that
// transaction's output back to the sender is authoritative, so every payment
// to the address from the cutoff block onward is summed and the walk stops.
// If the address never authored a transaction, the starting balance is added
// to the sum of every payment it received.
func CalculateBalance(chain []Block, address string, startingBalance uint64) uint64 {
	var total uint64
	var hasConducted bool

	for i := len(chain) - 1; i > 0; i-- {
		for _, tx := range chain[i].Data {
			if tx.Input.Address == address {
				hasConducted = true
			}

			total += tx.OutputMap[address]
		}

		if hasConducted {
			break
		}
	}

	if !hasConducted {
		total += startingBalance
	}

	return total
}

// KnownAddresses returns every address that received an output on the chain,
// in the order they first appear.
func KnownAddresses(chain []Block) []string {
	seen := make(map[string]struct{})
	var addrs []string

	for _, block := range chain {
		for _, tx := range block.Data {
			for _, addr := range tx.Recipients() {
				if _, exists := seen[addr]; exists {
					continue
				}
				seen[addr] = struct{}{}
				addrs = append(addrs, addr)
			}
		}
	}

	return addrs
}
