package codec

/*
#cgo pkg-config: libavformat libavcodec libavutil libswscale

#include <stdlib.h>
#include <libavformat/avformat.h>
#include <libavcodec/avcodec.h>
#include <libavutil/imgutils.h>
#include <libswscale/swscale.h>
#include <libavutil/log.h>

// -------------------- demux-side context --------------------

typedef struct {
    AVFormatContext *formatCtx;
    int              videoStream;
    AVRational        timeBase;
    int              width;
    int              height;
} DemuxCtx;

int demux_open(const char *filename, DemuxCtx *d) {
    av_log_set_level(AV_LOG_ERROR);
    d->videoStream = -1;

    if (avformat_open_input(&d->formatCtx, filename, NULL, NULL) != 0) {
        return -1; // source open failure
    }
    if (avformat_find_stream_info(d->formatCtx, NULL) < 0) {
        return -1;
    }

    int best = av_find_best_stream(d->formatCtx, AVMEDIA_TYPE_VIDEO, -1, -1, NULL, 0);
    if (best < 0) {
        return -2; // no video stream
    }
    d->videoStream = best;
    d->timeBase = d->formatCtx->streams[best]->time_base;
    d->width = d->formatCtx->streams[best]->codecpar->width;
    d->height = d->formatCtx->streams[best]->codecpar->height;
    return 0;
}

// Reads the next packet of any stream. Returns 1 with *outStream/*outPkt
// populated, 0 on EOF, negative on error. Caller must av_packet_free.
int demux_read_packet(DemuxCtx *d, AVPacket **outPkt, int *outStream) {
    AVPacket *pkt = av_packet_alloc();
    if (!pkt) return -1;
    int ret = av_read_frame(d->formatCtx, pkt);
    if (ret < 0) {
        av_packet_free(&pkt);
        return 0; // treat any non-zero read failure as EOF for simplicity
    }
    *outPkt = pkt;
    *outStream = pkt->stream_index;
    return 1;
}

int demux_seek(DemuxCtx *d, int64_t ts) {
    // Rewind to the start first so backward seeks behave consistently,
    // then seek to the target; tolerates the nearest keyframe at or
    // before ts via AVSEEK_FLAG_BACKWARD.
    av_seek_frame(d->formatCtx, -1, 0, AVSEEK_FLAG_BACKWARD);
    if (av_seek_frame(d->formatCtx, -1, ts, AVSEEK_FLAG_BACKWARD) < 0) {
        return -1;
    }
    return 0;
}

void free_packet(AVPacket *pkt) {
    if (pkt) {
        av_packet_free(&pkt);
    }
}

void demux_close(DemuxCtx *d) {
    if (!d) return;
    if (d->formatCtx) {
        avformat_close_input(&d->formatCtx);
    }
}

// -------------------- decode-side context --------------------

typedef struct {
    AVCodecContext    *codecCtx;
    AVFrame           *frame;
    AVFrame           *scaledFrame;
    struct SwsContext *swsCtx;
    uint8_t           *scaledBuffer;
    enum AVPixelFormat outFmt;
    int                width;
    int                height;
} DecodeCtx;

int decode_open(const char *filename, int videoStreamIndex, int outFmt, DecodeCtx *d) {
    AVFormatContext *probeCtx = NULL;
    if (avformat_open_input(&probeCtx, filename, NULL, NULL) != 0) {
        return -1;
    }
    if (avformat_find_stream_info(probeCtx, NULL) < 0) {
        avformat_close_input(&probeCtx);
        return -1;
    }

    AVCodecParameters *params = probeCtx->streams[videoStreamIndex]->codecpar;
    const AVCodec *dec = avcodec_find_decoder(params->codec_id);
    if (!dec) {
        avformat_close_input(&probeCtx);
        return -2; // decoder setup failure
    }

    d->codecCtx = avcodec_alloc_context3(dec);
    if (!d->codecCtx) {
        avformat_close_input(&probeCtx);
        return -2;
    }
    avcodec_parameters_to_context(d->codecCtx, params);
    d->codecCtx->thread_type = FF_THREAD_FRAME;
    d->codecCtx->thread_count = 0;

    if (avcodec_open2(d->codecCtx, dec, NULL) < 0) {
        avcodec_free_context(&d->codecCtx);
        avformat_close_input(&probeCtx);
        return -2;
    }

    d->width = d->codecCtx->width;
    d->height = d->codecCtx->height;
    d->outFmt = (enum AVPixelFormat)outFmt;

    d->frame = av_frame_alloc();
    d->scaledFrame = av_frame_alloc();

    int numBytes = av_image_get_buffer_size(d->outFmt, d->width, d->height, 1);
    d->scaledBuffer = (uint8_t *)av_malloc((size_t)numBytes);
    av_image_fill_arrays(d->scaledFrame->data, d->scaledFrame->linesize, d->scaledBuffer,
                          d->outFmt, d->width, d->height, 1);

    d->swsCtx = sws_getContext(d->width, d->height, d->codecCtx->pix_fmt,
                                d->width, d->height, d->outFmt,
                                SWS_BILINEAR, NULL, NULL, NULL);

    avformat_close_input(&probeCtx);
    if (!d->swsCtx) {
        return -2;
    }
    return 0;
}

// Returns 0 on success (pkt consumed), 1 on EAGAIN (pkt NOT consumed —
// the caller must drain with receive_frame and retry), -1 on error.
int decode_send_packet(DecodeCtx *d, AVPacket *pkt) {
    int ret = avcodec_send_packet(d->codecCtx, pkt);
    if (ret == AVERROR(EAGAIN)) {
        return 1;
    }
    if (ret < 0) {
        return -1;
    }
    return 0;
}

int decode_send_eof(DecodeCtx *d) {
    return avcodec_send_packet(d->codecCtx, NULL);
}

// Returns 1 on delivered frame (d->frame populated, pts in *outPts),
// 0 on EAGAIN, -1 on EOF, -2 on other error.
int decode_receive_frame(DecodeCtx *d, int64_t *outPts) {
    int ret = avcodec_receive_frame(d->codecCtx, d->frame);
    if (ret == AVERROR(EAGAIN)) {
        return 0;
    }
    if (ret == AVERROR_EOF) {
        return -1;
    }
    if (ret < 0) {
        return -2;
    }
    *outPts = d->frame->pts;
    return 1;
}

// Scales the last-received frame into d->scaledFrame/scaledBuffer.
// Returns 0 on success, negative on failure.
int decode_scale(DecodeCtx *d) {
    int ret = sws_scale(d->swsCtx,
                         (const uint8_t * const *)d->frame->data, d->frame->linesize,
                         0, d->height,
                         d->scaledFrame->data, d->scaledFrame->linesize);
    if (ret <= 0) {
        return -1;
    }
    return 0;
}

void decode_flush(DecodeCtx *d) {
    avcodec_flush_buffers(d->codecCtx);
}

void decode_close(DecodeCtx *d) {
    if (!d) return;
    if (d->scaledBuffer) av_free(d->scaledBuffer);
    if (d->scaledFrame) av_frame_free(&d->scaledFrame);
    if (d->frame) av_frame_free(&d->frame);
    if (d->swsCtx) sws_freeContext(d->swsCtx);
    if (d->codecCtx) avcodec_free_context(&d->codecCtx);
}
*/
import "C"

import (
	"unsafe"

	"videopipe/pkg/pipeline"
)

// avPixelFormat maps the core's output pixel format to an FFmpeg
// AVPixelFormat id. Values mirror libavutil/pixfmt.h.
func avPixelFormat(f pipeline.PixelFormat) C.int {
	switch f {
	case pipeline.PixelFormatPlanar420:
		return 0 // AV_PIX_FMT_YUV420P
	case pipeline.PixelFormatPacked422YUY2:
		return 1 // AV_PIX_FMT_YUYV422
	case pipeline.PixelFormatPacked422UYVY:
		return 15 // AV_PIX_FMT_UYVY422
	case pipeline.PixelFormatRGB24:
		return 2 // AV_PIX_FMT_RGB24
	default:
		return 0
	}
}

func planeCount(f pipeline.PixelFormat) int {
	switch f {
	case pipeline.PixelFormatPlanar420:
		return 3
	default:
		return 1
	}
}

// ffmpegDemuxer implements Demuxer.
type ffmpegDemuxer struct {
	ctx C.DemuxCtx
}

// OpenFFmpegDemuxer opens path as the demux-side codec backend handle.
func OpenFFmpegDemuxer(path string) (Demuxer, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	d := &ffmpegDemuxer{}
	ret := C.demux_open(cPath, &d.ctx)
	switch ret {
	case 0:
		return d, nil
	case -2:
		return nil, pipeline.Fatal(pipeline.StageDemuxer, pipeline.ErrNoVideoStream, nil)
	default:
		return nil, pipeline.Fatal(pipeline.StageDemuxer, pipeline.ErrSourceOpenFailure, nil)
	}
}

func (d *ffmpegDemuxer) VideoStreamIndex() int { return int(d.ctx.videoStream) }

func (d *ffmpegDemuxer) StreamTimeBase() pipeline.Rational {
	return pipeline.Rational{Num: int(d.ctx.timeBase.num), Den: int(d.ctx.timeBase.den)}
}

func (d *ffmpegDemuxer) Dimensions() (int, int) {
	return int(d.ctx.width), int(d.ctx.height)
}

func (d *ffmpegDemuxer) ReadPacket() (RawPacket, error) {
	var cPkt *C.AVPacket
	var stream C.int
	ret := C.demux_read_packet(&d.ctx, &cPkt, &stream)
	if ret == 0 {
		return RawPacket{}, ErrEOF
	}
	if ret < 0 {
		return RawPacket{}, pipeline.Fatal(pipeline.StageDemuxer, pipeline.ErrDecodeFailure, nil)
	}
	return RawPacket{
		StreamIndex: int(stream),
		Opaque:      &pipeline.Packet{Opaque: cPkt},
	}, nil
}

func (d *ffmpegDemuxer) Seek(ts int64) error {
	if C.demux_seek(&d.ctx, C.int64_t(ts)) != 0 {
		return pipeline.Fatal(pipeline.StageDemuxer, pipeline.ErrSeekFailure, nil)
	}
	return nil
}

func (d *ffmpegDemuxer) Close() error {
	C.demux_close(&d.ctx)
	return nil
}

func (d *ffmpegDemuxer) ReleasePacket(p RawPacket) {
	freeAVPacket(p)
}

// freeAVPacket releases the codec backend's native handle for p. Must be
// called exactly once for every packet produced by ReadPacket: by the
// Demuxer immediately for packets filtered out (wrong stream), and by
// the Decoder after SendPacket (or on epoch-mismatch discard) for
// packets that made it into the PacketQueue. Mirrors spec.md §3's
// PacketEnvelope lifetime note ("destroyed there" — i.e. in the Decoder).
func freeAVPacket(p RawPacket) {
	if p.Opaque == nil || p.Opaque.Opaque == nil {
		return
	}
	cPkt, ok := p.Opaque.Opaque.(*C.AVPacket)
	if !ok {
		return
	}
	C.free_packet(cPkt)
}

// ffmpegDecoder implements Decoder.
type ffmpegDecoder struct {
	ctx    C.DecodeCtx
	format pipeline.PixelFormat
}

// OpenFFmpegDecoder opens a second, independent handle onto path for
// decode+scale, matching the selected video stream discovered by a
// Demuxer opened against the same path (spec §5's "may not be shared
// across threads": each goroutine owns its own backend handle).
func OpenFFmpegDecoder(path string, videoStreamIndex int, outputFormat pipeline.PixelFormat) (Decoder, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	dec := &ffmpegDecoder{format: outputFormat}
	ret := C.decode_open(cPath, C.int(videoStreamIndex), avPixelFormat(outputFormat), &dec.ctx)
	if ret != 0 {
		return nil, pipeline.Fatal(pipeline.StageDecoder, pipeline.ErrDecoderSetupFailure, nil)
	}
	return dec, nil
}

func (d *ffmpegDecoder) SendPacket(p RawPacket) error {
	cPkt := (*C.AVPacket)(p.Opaque.Opaque.(*C.AVPacket))
	ret := C.decode_send_packet(&d.ctx, cPkt)
	switch ret {
	case 0:
		freeAVPacket(p)
		return nil
	case 1:
		// Not consumed: the caller must drain a frame and retry p.
		return ErrAgain
	default:
		freeAVPacket(p)
		return pipeline.Fatal(pipeline.StageDecoder, pipeline.ErrDecodeFailure, nil)
	}
}

func (d *ffmpegDecoder) SendEOF() error {
	C.decode_send_eof(&d.ctx)
	return nil
}

func (d *ffmpegDecoder) ReleasePacket(p RawPacket) {
	freeAVPacket(p)
}

func (d *ffmpegDecoder) ReceiveFrame() (*pipeline.Frame, int64, error) {
	var pts C.int64_t
	ret := C.decode_receive_frame(&d.ctx, &pts)
	switch ret {
	case 0:
		return nil, 0, ErrAgain
	case -1:
		return nil, 0, ErrEOF
	case -2:
		return nil, 0, pipeline.Fatal(pipeline.StageDecoder, pipeline.ErrDecodeFailure, nil)
	}

	if C.decode_scale(&d.ctx) != 0 {
		return nil, 0, pipeline.Fatal(pipeline.StageDecoder, pipeline.ErrScaleFailure, nil)
	}

	frame := &pipeline.Frame{
		Width:     int(d.ctx.width),
		Height:    int(d.ctx.height),
		Format:    d.format,
		SourcePTS: int64(pts),
	}

	n := planeCount(d.format)
	frame.Planes = make([][]byte, n)
	frame.Strides = make([]int, n)
	heightOf := func(plane int) int {
		if d.format == pipeline.PixelFormatPlanar420 && plane > 0 {
			return (int(d.ctx.height) + 1) / 2
		}
		return int(d.ctx.height)
	}
	for i := 0; i < n; i++ {
		stride := int(d.ctx.scaledFrame.linesize[i])
		h := heightOf(i)
		size := stride * h
		ptr := unsafe.Pointer(d.ctx.scaledFrame.data[i])
		frame.Planes[i] = C.GoBytes(ptr, C.int(size))
		frame.Strides[i] = stride
	}

	return frame, int64(pts), nil
}

func (d *ffmpegDecoder) Flush() {
	C.decode_flush(&d.ctx)
}

func (d *ffmpegDecoder) Close() error {
	C.decode_close(&d.ctx)
	return nil
}
