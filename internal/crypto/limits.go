package crypto

// MaxCompactSize is the maximum accepted length of a compact serialization.
// The outer JWS carries the whole envelope, so this also bounds the inner layers.
var MaxCompactSize = 1024 * 1024 // 1MB
