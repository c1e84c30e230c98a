package alloc

import "github.com/arloliu/sos/internal/bitsize"

func (b *Binned) binHead(bin int) Pointer {
	return Pointer(b.arena.Int32(int(b.binTable) + bin*binSlotSize))
}

func (b *Binned) setBinHead(bin int, p Pointer) {
	b.arena.PutInt32(int(b.binTable)+bin*binSlotSize, int32(p))
}

func (b *Binned) prevFree(p Pointer) Pointer {
	return Pointer(b.arena.Int32(int(p) + prevOffset))
}

func (b *Binned) setPrevFree(p, prev Pointer) {
	b.arena.PutInt32(int(p)+prevOffset, int32(prev))
}

func (b *Binned) nextFree(p Pointer) Pointer {
	return Pointer(b.arena.Int32(int(p) + nextOffset))
}

func (b *Binned) setNextFree(p, next Pointer) {
	b.arena.PutInt32(int(p)+nextOffset, int32(next))
}

// attach links free block p into its bin, before the first block that is at
// least as large.
func (b *Binned) attach(p Pointer) {
	size := b.arena.BlockSize(p)
	bin := bitsize.ClassIndex(size)

	prev := Nil
	cur := b.binHead(bin)
	for cur != Nil && b.arena.BlockSize(cur) < size {
		prev = cur
		cur = b.nextFree(cur)
	}

	b.setPrevFree(p, prev)
	b.setNextFree(p, cur)
	if prev == Nil {
		b.setBinHead(bin, p)
	} else {
		b.setNextFree(prev, p)
	}
	if cur != Nil {
		b.setPrevFree(cur, p)
	}

	b.freeBlocks++
	b.freeBytes += size
}

// detach unlinks free block p from its bin. The block size must not have
// changed since attach.
func (b *Binned) detach(p Pointer) {
	size := b.arena.BlockSize(p)
	bin := bitsize.ClassIndex(size)
	prev, next := b.prevFree(p), b.nextFree(p)

	if prev == Nil {
		b.setBinHead(bin, next)
	} else {
		b.setNextFree(prev, next)
	}
	if next != Nil {
		b.setPrevFree(next, prev)
	}

	b.freeBlocks--
	b.freeBytes -= size
}
