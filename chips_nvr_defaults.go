// chips_nvr_defaults.go - ER1400 factory default setup words
//
// These are this core's own default configuration, not a transcription of
// a real VT100 NVR dump (no NVR image is available to ground one
// byte-for-byte against). Word indices below follow the as-shipped setup
// categories (online/local, ANSI/VT52); the rest of the 100-word array is
// left zero and the checksum word is always derived, never hand-picked,
// so it is correct by construction.
package main

// Setup word indices and their bit meanings (word, not byte - each NVR
// word is 14 bits).
const (
	nvrWordCommMode    = 0  // bit0: 1 = online, 0 = local
	nvrWordAnsiMode    = 1  // bit0: 1 = ANSI, 0 = VT52
	nvrWordChecksum    = 50 // running checksum of words[0:50)
)

// loadFactoryDefaults seeds the NVR with the as-shipped setup: online,
// ANSI mode, everything else at its zero/default value.
func (n *NVR) loadFactoryDefaults() {
	for i := range n.words {
		n.words[i] = 0
	}
	n.words[nvrWordCommMode] = 1
	n.words[nvrWordAnsiMode] = 1
	n.words[nvrWordChecksum] = n.Checksum()
}
