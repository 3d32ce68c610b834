package utils

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidWallet(t *testing.T) {
	assert.True(t, IsValidWallet("0x"+strings.Repeat("a", 40)))
	assert.True(t, IsValidWallet(strings.Repeat("F", 40)))
	assert.True(t, IsValidWallet("0x38e382F74dfb84608F3C1F10187f6bEf5951DE93"))

	assert.False(t, IsValidWallet("0x"+strings.Repeat("a", 39)))
	assert.False(t, IsValidWallet("0x"+strings.Repeat("a", 41)))
	assert.False(t, IsValidWallet("nothex"+strings.Repeat("a", 34)))
	assert.False(t, IsValidWallet("0x"+strings.Repeat("g", 40)))
	assert.False(t, IsValidWallet(""))
	assert.False(t, IsValidWallet(" 0x"+strings.Repeat("a", 40)))
}

func TestMaskWallet(t *testing.T) {
	assert.Equal(t, "0x38e3...DE93", MaskWallet("0x38e382F74dfb84608F3C1F10187f6bEf5951DE93"))
	assert.Equal(t, "****", MaskWallet("short"))
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock(42)
			defer unlock()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, km.Len())
}

func TestKeyedMutexDifferentKeysDoNotBlock(t *testing.T) {
	km := NewKeyedMutex()
	unlockA := km.Lock(1)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := km.Lock(2)
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestIPAllowList(t *testing.T) {
	list, err := NewIPAllowList([]string{"10.0.0.0/8", "", "2a02:5180::/32"})
	require.NoError(t, err)

	assert.True(t, list.Allows("10.1.2.3"))
	assert.True(t, list.Allows("2a02:5180::1"))
	assert.False(t, list.Allows("192.168.1.1"))
	assert.False(t, list.Allows("not-an-ip"))

	empty, err := NewIPAllowList(nil)
	require.NoError(t, err)
	assert.True(t, empty.Allows("192.168.1.1"))

	_, err = NewIPAllowList([]string{"bogus"})
	assert.Error(t, err)
}
