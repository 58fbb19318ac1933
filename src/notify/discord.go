// Package notify announces marketplace activity to a Discord channel: settled
// votes from the redis stream and claims that reach a terminal status.
package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	"github.com/verdant-dao/carbon-claims/src/ledger"
)

const voteStream = "carbon.votes"

type Notifier struct {
	session   *discordgo.Session
	rdb       *redis.Client
	channelID string

	mu       sync.Mutex
	statuses map[string]ledger.ClaimStatus
}

func New(token, channelID string, rdb *redis.Client) (*Notifier, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	if err := dg.Open(); err != nil {
		return nil, err
	}
	return &Notifier{
		session:   dg,
		rdb:       rdb,
		channelID: channelID,
		statuses:  make(map[string]ledger.ClaimStatus),
	}, nil
}

func (n *Notifier) Close() error { return n.session.Close() }

// Start consumes the vote stream until ctx is cancelled. Only entries
// appended after startup are announced.
func (n *Notifier) Start(ctx context.Context) {
	go n.listenVotes(ctx)
}

func (n *Notifier) listenVotes(ctx context.Context) {
	lastID := "$"
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		streams, err := n.rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{voteStream, lastID},
			Count:   10,
			Block:   5 * time.Second,
		}).Result()
		if err != nil {
			if err != redis.Nil && ctx.Err() == nil {
				log.Printf("notify: vote stream read: %v", err)
			}
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				lastID = msg.ID
				n.announceVote(msg.Values)
			}
		}
	}
}

func (n *Notifier) announceVote(values map[string]interface{}) {
	claimID, _ := values["claim_id"].(string)
	voter, _ := values["voter"].(string)
	choice, _ := values["choice"].(string)
	digest, _ := values["digest"].(string)

	embed := &discordgo.MessageEmbed{
		Title: "Vote recorded",
		Color: 0x2e7d32,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Claim", Value: claimID, Inline: true},
			{Name: "Choice", Value: choice, Inline: true},
			{Name: "Voter", Value: shorten(voter), Inline: true},
			{Name: "Transaction", Value: digest},
		},
	}
	if _, err := n.session.ChannelMessageSendEmbed(n.channelID, embed); err != nil {
		log.Printf("notify: vote announce: %v", err)
	}
}

// OnSnapshot announces claims whose status became terminal since the last
// snapshot. Intended as (part of) the coordinator's update hook.
func (n *Notifier) OnSnapshot(snap ledger.Snapshot) {
	n.mu.Lock()
	var resolved []ledger.ClaimRecord
	for _, rec := range snap.Records {
		prev, seen := n.statuses[rec.ClaimID]
		if seen && prev != rec.Status && rec.Status.Terminal() {
			resolved = append(resolved, rec)
		}
		n.statuses[rec.ClaimID] = rec.Status
	}
	n.mu.Unlock()

	for _, rec := range resolved {
		embed := &discordgo.MessageEmbed{
			Title: fmt.Sprintf("Claim %s", rec.Status),
			Color: statusColor(rec.Status),
			Description: fmt.Sprintf("Claim %s for %d credits finished voting %d yes / %d no.",
				rec.ClaimID, rec.RequestedCredits, rec.YesVotes, rec.NoVotes),
		}
		if _, err := n.session.ChannelMessageSendEmbed(n.channelID, embed); err != nil {
			log.Printf("notify: resolution announce: %v", err)
		}
	}
}

func statusColor(s ledger.ClaimStatus) int {
	if s == ledger.StatusApproved {
		return 0x2e7d32
	}
	return 0xc62828
}

func shorten(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
