package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// KeyPrefix общий префикс ключей объяснений
const KeyPrefix = "explain"

// FramesFingerprint строит детерминированное представление набора фреймов.
// Пустой слот (отрицательное значение) кодируется как "_": "7,0,_".
func FramesFingerprint(frames []int) string {
	var b strings.Builder
	for i, f := range frames {
		if i > 0 {
			b.WriteByte(',')
		}
		if f < 0 {
			b.WriteByte('_')
			continue
		}
		b.WriteString(strconv.Itoa(f))
	}
	return b.String()
}

// SequenceHash короткий хеш строки обращений
func SequenceHash(refs []int) string {
	return ShortHash([]byte(FramesFingerprint(refs)))
}

// BuildStepKey ключ объяснения одного шага: алгоритм, страница и фреймы до обращения
func BuildStepKey(algorithm string, page int, framesBefore []int) string {
	return KeyPrefix + ":" + algorithm + ":step:p" + strconv.Itoa(page) + ":" + FramesFingerprint(framesBefore)
}

// BuildCompareKey ключ разбора прогона в сравнении с Optimal
func BuildCompareKey(algorithm string, refs []int, frames, faults int) string {
	return KeyPrefix + ":" + algorithm + ":compare:" + strconv.Itoa(frames) + ":" +
		strconv.Itoa(faults) + ":" + SequenceHash(refs)
}

// AlgorithmPattern паттерн всех ключей алгоритма
func AlgorithmPattern(algorithm string) string {
	return KeyPrefix + ":" + algorithm + ":*"
}

// QuickHash быстрый хеш для произвольных данных
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash короткий хеш (16 символов)
func ShortHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
